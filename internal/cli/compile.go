package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/query"
	"github.com/roach88/climaql/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions

	Collection    string
	MapCollection string
	Registry      string
	Journal       string
	Output        string

	Predicate string
	Geometry  string
	Mode      string
	Min       float64
	Max       float64
	Sort      string
	PageStart int
	PageLimit int
}

// CompileOutput is the compile command's result.
type CompileOutput struct {
	Query        string         `json:"query"`
	BindVars     map[string]any `json:"bind_vars"`
	Predicate    string         `json:"predicate"`
	Mode         string         `json:"mode"`
	Shape        string         `json:"shape"`
	RequiresJoin bool           `json:"requires_join"`
	Aggregates   int            `json:"aggregates"`
	Fingerprint  string         `json:"fingerprint"`
	BindDigest   string         `json:"bind_digest"`
	Journal      *store.Entry   `json:"journal,omitempty"`
}

// CursorRequest is the body of an ArangoDB cursor request.
type CursorRequest struct {
	Query    string         `json:"query"`
	BindVars map[string]any `json:"bindVars"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [request-file]",
		Short: "Compile a spatial predicate request to AQL",
		Long: `Compile a spatial predicate request to an AQL query and its bind variables.

The request is read from a YAML or JSON file ("-" for stdin) or built from
flags. Collection names default to the configured ones. With --journal (or a
journal path in the config) the compilation is recorded in the SQLite
compilation journal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runCompile(cmd.Context(), opts, path, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Collection, "collection", "", "properties collection (default from config)")
	f.StringVar(&opts.MapCollection, "map-collection", "", "map-layer collection (default from config)")
	f.StringVar(&opts.Registry, "registry", "", "variable catalog (.cue or .yaml); default from config or embedded")
	f.StringVar(&opts.Journal, "journal", "", "SQLite journal to record the compilation in")
	f.StringVarP(&opts.Output, "output", "o", "", "write an ArangoDB cursor request body to this file")

	f.StringVar(&opts.Predicate, "predicate", "", "distance | contains | intersects")
	f.StringVar(&opts.Geometry, "geometry", "", "reference geometry as GeoJSON")
	f.StringVar(&opts.Mode, "mode", "key", "key | shape | data | min | average | max | stddev | variance")
	f.Float64Var(&opts.Min, "min", 0, "minimum distance in metres (distance predicate)")
	f.Float64Var(&opts.Max, "max", 0, "maximum distance in metres (distance predicate)")
	f.StringVar(&opts.Sort, "sort", "", "distance sort order: none | asc | desc")
	f.IntVar(&opts.PageStart, "page-start", 0, "offset of the first row")
	f.IntVar(&opts.PageLimit, "page-limit", query.DefaultPageLimit, "maximum number of rows")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	log := opts.Logger

	req, err := opts.request(path, cmd)
	if err != nil {
		code := ErrCodeDecode
		if query.IsValidationError(err) || errors.Is(err, fs.ErrNotExist) {
			code = ""
		}
		return fail(formatter, code, err)
	}

	registryPath := firstNonEmpty(opts.Registry, opts.Config.Registry)
	reg, err := loadRegistry(log, registryPath)
	if err != nil {
		return fail(formatter, "", err)
	}

	compiler, err := query.NewCompiler(reg, opts.Config.Layout)
	if err != nil {
		return fail(formatter, ErrCodeConfig, err)
	}

	q, err := compiler.Compile(req)
	if err != nil {
		log.Debug().Err(err).Str("field", query.ErrorField(err)).Msg("request rejected")
		return fail(formatter, "", err)
	}

	fingerprint, err := q.Fingerprint()
	if err != nil {
		return fail(formatter, ErrCodeGeneric, err)
	}
	digest, err := store.BindDigest(q.BindVars)
	if err != nil {
		return fail(formatter, ErrCodeGeneric, err)
	}

	out := CompileOutput{
		Query:        q.Query,
		BindVars:     q.BindVars,
		Predicate:    string(q.Predicate),
		Mode:         string(q.Mode),
		Shape:        string(q.Shape),
		RequiresJoin: q.RequiresJoin,
		Aggregates:   q.Aggregates,
		Fingerprint:  fingerprint,
		BindDigest:   digest,
	}
	log.Info().
		Str("predicate", out.Predicate).
		Str("mode", out.Mode).
		Bool("requires_join", out.RequiresJoin).
		Int("aggregates", out.Aggregates).
		Str("fingerprint", fingerprint).
		Msg("query compiled")

	if journal := firstNonEmpty(opts.Journal, opts.Config.Journal); journal != "" {
		entry, err := recordCompilation(ctx, opts, journal, q)
		if err != nil {
			return fail(formatter, ErrCodeJournal, err)
		}
		out.Journal = &entry
	}

	if opts.Output != "" {
		if err := writeCursorRequest(opts.Output, q); err != nil {
			return fail(formatter, ErrCodeWriteFailed, err)
		}
		formatter.VerboseLog("Wrote cursor request to %s", opts.Output)
	}

	return formatter.Emit(out, func(w io.Writer) error {
		return writeCompileText(w, out)
	})
}

// request builds the request from the file at path, or from flags when path
// is empty. Collection names missing from a file fall back to the flags and
// the configuration.
func (o *CompileOptions) request(path string, cmd *cobra.Command) (query.SpatialPredicateRequest, error) {
	collection := firstNonEmpty(o.Collection, o.Config.Collections.Properties)
	mapCollection := firstNonEmpty(o.MapCollection, o.Config.Collections.Map)

	if path != "" {
		data, err := readInput(path, cmd.InOrStdin())
		if err != nil {
			return query.SpatialPredicateRequest{}, err
		}
		req, err := query.DecodeRequest(data)
		if err != nil {
			return query.SpatialPredicateRequest{}, err
		}
		if req.Collection == "" {
			req.Collection = collection
		}
		if req.MapCollection == "" {
			req.MapCollection = mapCollection
		}
		return req, nil
	}

	doc := query.RequestDocument{
		Collection:    collection,
		MapCollection: mapCollection,
		Predicate:     o.Predicate,
		Mode:          o.Mode,
		PageStart:     o.PageStart,
		PageLimit:     &o.PageLimit,
	}
	if o.Geometry != "" {
		var g any
		if err := json.Unmarshal([]byte(o.Geometry), &g); err != nil {
			return query.SpatialPredicateRequest{}, &query.ValidationError{
				Field:   query.FieldGeometry,
				Message: fmt.Sprintf("not JSON: %v", err),
			}
		}
		doc.Geometry = g
	}

	flags := cmd.Flags()
	kind, _ := predicate.ParseKind(o.Predicate)
	if kind == predicate.KindDistance || flags.Changed("min") || flags.Changed("max") || flags.Changed("sort") {
		doc.DistanceBounds = &query.DocumentBounds{Min: o.Min, Max: o.Max, Sort: o.Sort}
	}
	return doc.Request()
}

func recordCompilation(ctx context.Context, opts *CompileOptions, path string, q *query.CompiledQuery) (store.Entry, error) {
	st, err := openJournal(opts.Logger, path)
	if err != nil {
		return store.Entry{}, err
	}
	defer st.Close()

	entry, err := st.Record(ctx, q)
	if err != nil {
		return store.Entry{}, err
	}
	opts.Logger.Debug().
		Str("id", entry.ID).
		Int64("hits", entry.Hits).
		Int64("seq", entry.LastSeq).
		Msg("compilation journaled")
	return entry, nil
}

func writeCursorRequest(path string, q *query.CompiledQuery) error {
	data, err := json.MarshalIndent(CursorRequest{Query: q.Query, BindVars: q.BindVars}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cursor request: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeCompileText(w io.Writer, out CompileOutput) error {
	bindJSON, err := json.MarshalIndent(out.BindVars, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(w, out.Query)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Bind variables:")
	fmt.Fprintln(w, string(bindJSON))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "predicate: %s  mode: %s  shape: %s  join: %t  aggregates: %d\n",
		out.Predicate, out.Mode, out.Shape, out.RequiresJoin, out.Aggregates)
	fmt.Fprintf(w, "fingerprint: %s\n", out.Fingerprint)
	fmt.Fprintf(w, "bind digest: %s\n", out.BindDigest)
	if out.Journal != nil {
		fmt.Fprintf(w, "journal: %s (hits %d)\n", out.Journal.ID, out.Journal.Hits)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
