package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/guild-tracker/internal/event"
)

// SortOrder represents the available sorting options for the roster listing
type SortOrder string

const (
	SortByGuild SortOrder = "guild"
	SortByName  SortOrder = "name"
)

// RosterEntry is one tracked player with their last known guild
type RosterEntry struct {
	Player string `json:"player"`
	Guild  string `json:"guild"`
}

// rosterEntries flattens a state into entries sorted by the given order
func rosterEntries(state event.State, sortOrder SortOrder) []RosterEntry {
	entries := make([]RosterEntry, 0, len(state))
	for player, guild := range state {
		entries = append(entries, RosterEntry{Player: player, Guild: guild})
	}
	sortEntries(entries, sortOrder)
	return entries
}

// sortEntries sorts entries in place
func sortEntries(entries []RosterEntry, sortOrder SortOrder) {
	switch sortOrder {
	case SortByGuild:
		sort.Slice(entries, func(i, j int) bool {
			gi, gj := entries[i].Guild, entries[j].Guild
			if gi != gj {
				// Guildless players go last
				if gi == "" || gj == "" {
					return gj == ""
				}
				return compareFold(gi, gj)
			}
			return compareFold(entries[i].Player, entries[j].Player)
		})
	default:
		sort.Slice(entries, func(i, j int) bool {
			return compareFold(entries[i].Player, entries[j].Player)
		})
	}
}

// compareFold orders case-insensitively, falling back to byte order for ties
func compareFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
