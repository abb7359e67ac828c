package event

import "fmt"

// Kind identifies the type of guild change
type Kind string

const (
	Joined      Kind = "joined"
	Left        Kind = "left"
	Transferred Kind = "transferred"
)

// Change represents a guild membership change detected for one player
type Change struct {
	Kind     Kind   `json:"kind"`
	Player   string `json:"player"`
	OldGuild string `json:"old_guild,omitempty"`
	NewGuild string `json:"new_guild,omitempty"`
}

// Language selects the wording of rendered change messages
type Language string

const (
	English Language = "en"
	German  Language = "de"
)

// ParseLanguage validates a language code. An empty code selects English.
func ParseLanguage(code string) (Language, error) {
	switch Language(code) {
	case "", English:
		return English, nil
	case German:
		return German, nil
	default:
		return "", fmt.Errorf("unsupported language: %q (must be 'en' or 'de')", code)
	}
}

// Message renders the change as a single human-readable line
func (c Change) Message(lang Language) string {
	if lang == German {
		switch c.Kind {
		case Joined:
			return fmt.Sprintf("🟢 %s ist der Gilde %s beigetreten.", c.Player, c.NewGuild)
		case Left:
			return fmt.Sprintf("🔴 %s hat die Gilde %s verlassen.", c.Player, c.OldGuild)
		case Transferred:
			return fmt.Sprintf("🟡 %s ist von %s zu %s gewechselt.", c.Player, c.OldGuild, c.NewGuild)
		}
	}

	switch c.Kind {
	case Joined:
		return fmt.Sprintf("🟢 %s joined the guild %s.", c.Player, c.NewGuild)
	case Left:
		return fmt.Sprintf("🔴 %s left the guild %s.", c.Player, c.OldGuild)
	case Transferred:
		return fmt.Sprintf("🟡 %s moved from %s to %s.", c.Player, c.OldGuild, c.NewGuild)
	}
	return fmt.Sprintf("%s: %s", c.Kind, c.Player)
}

// RenderMessages renders every change in order
func RenderMessages(changes []Change, lang Language) []string {
	messages := make([]string, 0, len(changes))
	for _, c := range changes {
		messages = append(messages, c.Message(lang))
	}
	return messages
}
