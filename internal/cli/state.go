package cli

import (
	"fmt"
	"io"

	"github.com/pfrederiksen/guild-tracker/internal/storage"
	"github.com/spf13/cobra"
)

const noGuildLabel = "(no guild)"

// StateOutput is the JSON form of the state listing
type StateOutput struct {
	Path    string        `json:"path"`
	Tracked int           `json:"tracked"`
	Guilds  int           `json:"guilds"`
	Entries []RosterEntry `json:"entries"`
}

func newStateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the persisted roster state",
		Long: `Prints every tracked player with their last known guild, grouped by guild
or sorted by name. The state file is only read, never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.sortOrder, "sort", string(SortByGuild), "Sort order: guild or name")

	return cmd
}

func runState(cmd *cobra.Command, opts *options) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}

	sortOrder := SortOrder(opts.sortOrder)
	if sortOrder != SortByGuild && sortOrder != SortByName {
		return fmt.Errorf("invalid sort order: %s (must be 'guild' or 'name')", opts.sortOrder)
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.StateFile)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	state, err := store.Load()
	if err != nil {
		return err
	}

	entries := rosterEntries(state, sortOrder)
	out := &StateOutput{
		Path:    store.Path(),
		Tracked: len(entries),
		Guilds:  countGuilds(entries),
		Entries: entries,
	}

	if format == FormatJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	writeStateText(cmd.OutOrStdout(), out, sortOrder)
	return nil
}

func countGuilds(entries []RosterEntry) int {
	guilds := make(map[string]bool)
	for _, e := range entries {
		if e.Guild != "" {
			guilds[e.Guild] = true
		}
	}
	return len(guilds)
}

func guildLabel(guild string) string {
	if guild == "" {
		return noGuildLabel
	}
	return guild
}

// writeStateText prints the roster grouped by guild or as a flat list
func writeStateText(w io.Writer, out *StateOutput, sortOrder SortOrder) {
	if out.Tracked == 0 {
		fmt.Fprintln(w, "No players tracked yet.")
		return
	}

	if sortOrder == SortByName {
		for _, e := range out.Entries {
			fmt.Fprintf(w, "%s: %s\n", e.Player, guildLabel(e.Guild))
		}
	} else {
		for i, e := range out.Entries {
			if i == 0 || out.Entries[i-1].Guild != e.Guild {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "%s (%d players):\n", guildLabel(e.Guild), groupSize(out.Entries, i))
			}
			fmt.Fprintf(w, "  %s\n", e.Player)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d players in %d guilds\n", out.Tracked, out.Guilds)
}

// groupSize counts consecutive entries sharing the guild of entries[start]
func groupSize(entries []RosterEntry, start int) int {
	n := 0
	for i := start; i < len(entries) && entries[i].Guild == entries[start].Guild; i++ {
		n++
	}
	return n
}
