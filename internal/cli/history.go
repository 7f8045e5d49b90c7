package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/climaql/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Journal   string
	Limit     int
	Predicate string
	Mode      string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [fingerprint]",
		Short: "List journaled compilations",
		Long: `List compilations recorded in the journal, most recent first, or show
one compilation by fingerprint.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of entries (0 for all)")
	cmd.Flags().StringVar(&opts.Predicate, "predicate", "", "only entries for this predicate")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "only entries for this result mode")
	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()

	path := firstNonEmpty(opts.Journal, opts.Config.Journal)
	if path == "" {
		return failf(formatter, ErrCodeJournal, ExitCommandError, "no journal configured (use --journal or the journal config key)")
	}
	if _, err := os.Stat(path); err != nil {
		return fail(formatter, ErrCodeNotFound, fmt.Errorf("journal %s: %w", path, err))
	}

	st, err := openJournal(opts.Logger, path)
	if err != nil {
		return fail(formatter, ErrCodeJournal, err)
	}
	defer st.Close()

	if len(args) == 1 {
		entry, ok, err := st.Lookup(ctx, args[0])
		if err != nil {
			return fail(formatter, ErrCodeJournal, err)
		}
		if !ok {
			return failf(formatter, ErrCodeNotFound, ExitFailure, "no compilation with fingerprint %s", args[0])
		}
		return formatter.Emit(entry, func(w io.Writer) error {
			writeEntryText(w, entry)
			return nil
		})
	}

	entries, err := st.List(ctx, store.ListOptions{
		Limit:     opts.Limit,
		Predicate: opts.Predicate,
		Mode:      opts.Mode,
	})
	if err != nil {
		return fail(formatter, ErrCodeJournal, err)
	}

	return formatter.Emit(entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No compilations journaled.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%6d  %-10s %-9s hits=%-4d %s  %s\n",
				e.LastSeq, e.Predicate, e.Mode, e.Hits, shortFingerprint(e.Fingerprint), e.BindDigest)
		}
		return nil
	})
}

func writeEntryText(w io.Writer, e store.Entry) {
	fmt.Fprintf(w, "id:          %s\n", e.ID)
	fmt.Fprintf(w, "fingerprint: %s\n", e.Fingerprint)
	fmt.Fprintf(w, "bind digest: %s\n", e.BindDigest)
	fmt.Fprintf(w, "predicate:   %s\n", e.Predicate)
	fmt.Fprintf(w, "mode:        %s (%s)\n", e.Mode, e.Shape)
	fmt.Fprintf(w, "join:        %t\n", e.RequiresJoin)
	fmt.Fprintf(w, "aggregates:  %d\n", e.Aggregates)
	fmt.Fprintf(w, "seq:         %d..%d, hits %d\n", e.FirstSeq, e.LastSeq, e.Hits)
	fmt.Fprintf(w, "\n%s\n", e.Query)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
