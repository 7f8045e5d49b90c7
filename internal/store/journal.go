package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/roach88/climaql/internal/ir"
	"github.com/roach88/climaql/internal/query"
)

// Entry is one journaled compilation.
type Entry struct {
	ID           string         `json:"id"`
	Fingerprint  string         `json:"fingerprint"`
	BindDigest   string         `json:"bind_digest"`
	Predicate    string         `json:"predicate"`
	Mode         string         `json:"mode"`
	Shape        string         `json:"shape"`
	RequiresJoin bool           `json:"requires_join"`
	Aggregates   int            `json:"aggregates"`
	Query        string         `json:"query"`
	BindVars     map[string]any `json:"bind_vars"`
	FirstSeq     int64          `json:"first_seq"`
	LastSeq      int64          `json:"last_seq"`
	Hits         int64          `json:"hits"`
}

// BindDigest returns the xxhash64 of the canonical bind variables as 16 hex
// digits.
func BindDigest(bindVars map[string]any) (string, error) {
	if bindVars == nil {
		bindVars = map[string]any{}
	}
	canonical, err := ir.MarshalCanonical(bindVars)
	if err != nil {
		return "", fmt.Errorf("bind digest: %w", err)
	}
	return digestOf(canonical), nil
}

func digestOf(canonical []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(canonical))
}

// Record journals q. A query already present (same fingerprint) keeps its ID
// and first sequence number; its hit count and last sequence number advance.
func (s *Store) Record(ctx context.Context, q *query.CompiledQuery) (Entry, error) {
	if q == nil {
		return Entry{}, fmt.Errorf("record: nil query")
	}

	fingerprint, err := q.Fingerprint()
	if err != nil {
		return Entry{}, fmt.Errorf("record: %w", err)
	}
	bindJSON, err := ir.MarshalCanonical(nonNil(q.BindVars))
	if err != nil {
		return Entry{}, fmt.Errorf("record: marshal bind vars: %w", err)
	}
	digest := digestOf(bindJSON)

	id, err := s.newID()
	if err != nil {
		return Entry{}, fmt.Errorf("record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("record: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(last_seq), 0) + 1 FROM compilations`,
	).Scan(&seq); err != nil {
		return Entry{}, fmt.Errorf("record: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO compilations
		(id, fingerprint, bind_digest, predicate, mode, shape, requires_join, aggregates, query, bind_vars, first_seq, last_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			hits = hits + 1,
			last_seq = excluded.last_seq
	`,
		id,
		fingerprint,
		digest,
		string(q.Predicate),
		string(q.Mode),
		string(q.Shape),
		q.RequiresJoin,
		q.Aggregates,
		q.Query,
		string(bindJSON),
		seq,
		seq,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("record: %w", err)
	}

	entry, err := scanEntry(tx.QueryRowContext(ctx, selectEntry+` WHERE fingerprint = ?`, fingerprint))
	if err != nil {
		return Entry{}, fmt.Errorf("record: read back: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("record: commit: %w", err)
	}
	return entry, nil
}

// Lookup returns the entry with the given fingerprint. ok is false when no
// such compilation was journaled.
func (s *Store) Lookup(ctx context.Context, fingerprint string) (entry Entry, ok bool, err error) {
	entry, err = scanEntry(s.db.QueryRowContext(ctx, selectEntry+` WHERE fingerprint = ?`, fingerprint))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %s: %w", fingerprint, err)
	}
	return entry, true, nil
}

// ListOptions filters List.
type ListOptions struct {
	// Limit caps the number of entries; 0 means no limit.
	Limit int

	// Predicate and Mode restrict the listing when set.
	Predicate string
	Mode      string
}

// List returns journaled compilations, most recently recorded first.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	q := selectEntry + ` WHERE (? = '' OR predicate = ?) AND (? = '' OR mode = ?)
		ORDER BY last_seq DESC, id COLLATE BINARY ASC`
	args := []any{opts.Predicate, opts.Predicate, opts.Mode, opts.Mode}
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list compilations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compilations: %w", err)
	}
	return entries, nil
}

const selectEntry = `
	SELECT id, fingerprint, bind_digest, predicate, mode, shape, requires_join, aggregates,
		query, bind_vars, first_seq, last_seq, hits
	FROM compilations`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e        Entry
		bindJSON string
	)
	if err := row.Scan(
		&e.ID,
		&e.Fingerprint,
		&e.BindDigest,
		&e.Predicate,
		&e.Mode,
		&e.Shape,
		&e.RequiresJoin,
		&e.Aggregates,
		&e.Query,
		&bindJSON,
		&e.FirstSeq,
		&e.LastSeq,
		&e.Hits,
	); err != nil {
		return Entry{}, err
	}

	bindVars, err := unmarshalBindVars(bindJSON)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	e.BindVars = bindVars
	return e, nil
}

// unmarshalBindVars parses stored canonical JSON. Numbers are decoded as
// json.Number so integers keep full precision.
func unmarshalBindVars(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	out := map[string]any{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("unmarshal bind vars: %w", err)
	}
	return out, nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
