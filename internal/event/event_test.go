package event

import (
	"strings"
	"testing"
)

func TestChangeMessage(t *testing.T) {
	tests := []struct {
		name   string
		change Change
		lang   Language
		want   string
	}{
		{
			name:   "joined english",
			change: Change{Kind: Joined, Player: "Alice", NewGuild: "Bar"},
			lang:   English,
			want:   "🟢 Alice joined the guild Bar.",
		},
		{
			name:   "left english",
			change: Change{Kind: Left, Player: "Alice", OldGuild: "Foo"},
			lang:   English,
			want:   "🔴 Alice left the guild Foo.",
		},
		{
			name:   "transferred english",
			change: Change{Kind: Transferred, Player: "Alice", OldGuild: "Foo", NewGuild: "Bar"},
			lang:   English,
			want:   "🟡 Alice moved from Foo to Bar.",
		},
		{
			name:   "joined german",
			change: Change{Kind: Joined, Player: "Alice", NewGuild: "Bar"},
			lang:   German,
			want:   "🟢 Alice ist der Gilde Bar beigetreten.",
		},
		{
			name:   "left german",
			change: Change{Kind: Left, Player: "Alice", OldGuild: "Foo"},
			lang:   German,
			want:   "🔴 Alice hat die Gilde Foo verlassen.",
		},
		{
			name:   "transferred german",
			change: Change{Kind: Transferred, Player: "Alice", OldGuild: "Foo", NewGuild: "Bar"},
			lang:   German,
			want:   "🟡 Alice ist von Foo zu Bar gewechselt.",
		},
		{
			name:   "empty language falls back to english",
			change: Change{Kind: Left, Player: "Bob", OldGuild: "Foo"},
			lang:   "",
			want:   "🔴 Bob left the guild Foo.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.Message(tt.lang); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderMessages(t *testing.T) {
	changes := []Change{
		{Kind: Joined, Player: "Alice", NewGuild: "Foo"},
		{Kind: Left, Player: "Bob", OldGuild: "Bar"},
	}

	messages := RenderMessages(changes, English)
	if len(messages) != 2 {
		t.Fatalf("RenderMessages() returned %d messages, want 2", len(messages))
	}
	if !strings.Contains(messages[0], "Alice") || !strings.Contains(messages[1], "Bob") {
		t.Errorf("RenderMessages() did not keep change order: %v", messages)
	}

	if got := RenderMessages(nil, English); len(got) != 0 {
		t.Errorf("RenderMessages(nil) = %v, want empty", got)
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		code    string
		want    Language
		wantErr bool
	}{
		{"", English, false},
		{"en", English, false},
		{"de", German, false},
		{"fr", "", true},
		{"EN", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseLanguage(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLanguage(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}
