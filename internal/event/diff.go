package event

// State maps every player ever observed to their last known guild.
// An empty guild means the player was last seen without a guild.
type State map[string]string

// Lookup returns the stored guild of a player and whether the player is known at all
func (s State) Lookup(player string) (string, bool) {
	guild, ok := s[player]
	return guild, ok
}

// Len returns the number of tracked players
func (s State) Len() int {
	return len(s)
}

// Clone returns a copy of the state. A nil state clones to an empty one.
func (s State) Clone() State {
	clone := make(State, len(s))
	for player, guild := range s {
		clone[player] = guild
	}
	return clone
}

// Snapshot is the roster as currently shown on the source page.
// Iteration order is the order in which players were first added.
type Snapshot struct {
	names  []string
	guilds map[string]string
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		guilds: make(map[string]string),
	}
}

// SnapshotOf builds a snapshot from parallel name/guild pairs, in order.
// It panics if an odd number of strings is given.
func SnapshotOf(pairs ...string) *Snapshot {
	if len(pairs)%2 != 0 {
		panic("event.SnapshotOf: odd number of arguments")
	}
	snap := NewSnapshot()
	for i := 0; i < len(pairs); i += 2 {
		snap.Set(pairs[i], pairs[i+1])
	}
	return snap
}

// Set records the guild shown for a player. A player added twice keeps its
// first position and takes the latest guild.
func (s *Snapshot) Set(player, guild string) {
	if _, exists := s.guilds[player]; !exists {
		s.names = append(s.names, player)
	}
	s.guilds[player] = guild
}

// Lookup returns the guild shown for a player and whether the player is on the page
func (s *Snapshot) Lookup(player string) (string, bool) {
	guild, ok := s.guilds[player]
	return guild, ok
}

// Names returns the visible players in snapshot order
func (s *Snapshot) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Len returns the number of visible players
func (s *Snapshot) Len() int {
	return len(s.names)
}

// State converts the snapshot into a State suitable for persisting
func (s *Snapshot) State() State {
	state := make(State, len(s.names))
	for player, guild := range s.guilds {
		state[player] = guild
	}
	return state
}

// Diff compares the visible players against the previous state and returns
// their guild changes in snapshot order. Players absent from the snapshot
// never produce a change.
func Diff(previous State, current *Snapshot) []Change {
	changes := make([]Change, 0)
	if current == nil {
		return changes
	}

	for _, player := range current.names {
		newGuild := current.guilds[player]
		oldGuild, known := previous.Lookup(player)

		// A newly tracked player is only worth reporting when they show a guild
		if !known {
			if newGuild != "" {
				changes = append(changes, Change{Kind: Joined, Player: player, NewGuild: newGuild})
			}
			continue
		}

		if oldGuild == newGuild {
			continue
		}

		switch {
		case newGuild == "":
			changes = append(changes, Change{Kind: Left, Player: player, OldGuild: oldGuild})
		case oldGuild == "":
			changes = append(changes, Change{Kind: Joined, Player: player, NewGuild: newGuild})
		default:
			changes = append(changes, Change{Kind: Transferred, Player: player, OldGuild: oldGuild, NewGuild: newGuild})
		}
	}

	return changes
}

// Merge returns a new state where every visible player takes their current
// guild and every other player keeps the stored one. previous is not modified.
func Merge(previous State, current *Snapshot) State {
	merged := previous.Clone()
	if current == nil {
		return merged
	}
	for player, guild := range current.guilds {
		merged[player] = guild
	}
	return merged
}

// Reconcile computes the changes between previous and current and the merged state to persist
func Reconcile(previous State, current *Snapshot) ([]Change, State) {
	return Diff(previous, current), Merge(previous, current)
}

// CountByKind tallies changes per kind
func CountByKind(changes []Change) map[Kind]int {
	counts := make(map[Kind]int)
	for _, c := range changes {
		counts[c.Kind]++
	}
	return counts
}
