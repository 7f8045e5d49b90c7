package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"
)

// NewRebuildCommand creates the rebuild command.
func NewRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		path    string
		flatten bool
	)

	cmd := &cobra.Command{
		Use:   "rebuild <record.json>",
		Short: "Rebuild a nested climate record from flat keys",
		Long: `Rebuild turns a flat record (keys such as "1981-2010/bio01", as returned
by aggregate queries) into the nested climate record. With --flatten it does
the inverse. "-" reads stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				code := ErrCodeReadFailed
				if errors.Is(err, fs.ErrNotExist) {
					code = ErrCodeNotFound
				}
				return fail(formatter, code, err)
			}

			var record map[string]any
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			if err := dec.Decode(&record); err != nil {
				return fail(formatter, ErrCodeDecode, fmt.Errorf("decode record: %w", err))
			}

			reg, err := loadRegistry(rootOpts.Logger, firstNonEmpty(path, rootOpts.Config.Registry))
			if err != nil {
				return fail(formatter, "", err)
			}

			var out map[string]any
			if flatten {
				out, err = reg.Flatten(record)
			} else {
				out, err = reg.Rebuild(record)
			}
			if err != nil {
				return fail(formatter, ErrCodeUnknownKey, err)
			}

			return formatter.Emit(out, func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			})
		},
	}

	cmd.Flags().StringVar(&path, "registry", "", "variable catalog (.cue or .yaml); default from config or embedded")
	cmd.Flags().BoolVar(&flatten, "flatten", false, "flatten a nested record instead")
	return cmd
}

