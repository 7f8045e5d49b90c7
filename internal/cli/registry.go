package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/climaql/internal/registry"
)

// VariableInfo describes one catalog leaf.
type VariableInfo struct {
	Key        string `json:"key"`
	Kind       string `json:"kind"`
	Aggregable bool   `json:"aggregable"`
}

// RegistryListing is the output of registry list.
type RegistryListing struct {
	Variables  []VariableInfo `json:"variables"`
	Count      int            `json:"count"`
	Aggregable int            `json:"aggregable"`
}

// RegistryValidation is the output of registry validate.
type RegistryValidation struct {
	Valid      bool     `json:"valid"`
	Count      int      `json:"count"`
	Aggregable int      `json:"aggregable"`
	Warnings   []string `json:"warnings,omitempty"`
}

// NewRegistryCommand creates the registry command group.
func NewRegistryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and validate variable catalogs",
	}
	cmd.AddCommand(newRegistryListCommand(rootOpts))
	cmd.AddCommand(newRegistryValidateCommand(rootOpts))
	return cmd
}

func newRegistryListCommand(opts *RootOptions) *cobra.Command {
	var (
		path           string
		aggregableOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog variables in walk order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)

			reg, err := loadRegistry(opts.Logger, firstNonEmpty(path, opts.Config.Registry))
			if err != nil {
				return fail(formatter, "", err)
			}

			listing := RegistryListing{
				Variables:  []VariableInfo{},
				Count:      reg.Len(),
				Aggregable: reg.AggregableLen(),
			}
			seq := reg.Walk()
			if aggregableOnly {
				seq = reg.Aggregable()
			}
			for key, v := range seq {
				listing.Variables = append(listing.Variables, VariableInfo{
					Key:        key,
					Kind:       string(v.Kind),
					Aggregable: v.Aggregable,
				})
			}

			return formatter.Emit(listing, func(w io.Writer) error {
				for _, v := range listing.Variables {
					fmt.Fprintf(w, "%s\t%s\n", v.Key, v.Kind)
				}
				fmt.Fprintf(w, "\n%d variable(s), %d aggregable\n", listing.Count, listing.Aggregable)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&path, "registry", "", "variable catalog (.cue or .yaml); default from config or embedded")
	cmd.Flags().BoolVar(&aggregableOnly, "aggregable", false, "list only aggregable variables")
	return cmd
}

func newRegistryValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog>",
		Short: "Validate a variable catalog",
		Long: `Load a .cue or .yaml variable catalog and report schema errors with
their source position, plus non-fatal warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := opts.formatter(cmd)

			reg, err := registry.LoadFile(args[0])
			if err != nil {
				return fail(formatter, "", err)
			}

			result := RegistryValidation{
				Valid:      true,
				Count:      reg.Len(),
				Aggregable: reg.AggregableLen(),
				Warnings:   reg.Lint(),
			}
			return formatter.Emit(result, func(w io.Writer) error {
				fmt.Fprintf(w, "✓ %s: %d variable(s), %d aggregable\n", args[0], result.Count, result.Aggregable)
				for _, warning := range result.Warnings {
					fmt.Fprintf(w, "  warning: %s\n", warning)
				}
				return nil
			})
		},
	}
}
