package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/query"
	"github.com/roach88/climaql/internal/registry"
)

func TestOutputFormatter_JSONEmit(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Emit(map[string]int{"aggregates": 4}, func(io.Writer) error {
		t.Fatal("text callback called for JSON output")
		return nil
	})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"aggregates": 4.0}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_TextEmit(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Emit(nil, func(w io.Writer) error {
		_, err := io.WriteString(w, "LET reference = @reference\n")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "LET reference = @reference\n", buf.String())
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("catalog valid"))
	assert.Equal(t, "catalog valid\n", buf.String())
}

func TestOutputFormatter_JSONFieldError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.FieldError(ErrCodeMode, "mode", `invalid mode: unknown result mode "median"`, nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E216", resp.Error.Code)
	assert.Equal(t, "mode", resp.Error.Field)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeSchema, "schema error at variables.bio01: bad kind", map[string]int{"line": 3}))
	assert.Equal(t, "Error [E206]: schema error at variables.bio01: bad kind\n", buf.String())

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(ErrCodeSchema, "bad kind", map[string]int{"line": 3}))
	assert.Contains(t, buf.String(), "Details: map[line:3]")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag}

	formatter.VerboseLog("wrote %s", "cursor.json")
	assert.Empty(t, diag.String())

	formatter.Verbose = true
	formatter.VerboseLog("wrote %s", "cursor.json")
	assert.Equal(t, "wrote cursor.json\n", diag.String())
	assert.Empty(t, out.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "E202")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "E216", errors.New("bad mode")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.EqualError(t, wrapped, "outer: E216: bad mode")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  string
		wantField string
		wantExit  int
	}{
		{"invalid range", &predicate.InvalidRangeError{Min: 5, Max: 1}, ErrCodeInvalidRange, "distance_bounds", ExitFailure},
		{"validation", &query.ValidationError{Field: query.FieldPageLimit, Message: "negative"}, ErrCodePageLimit, "page_limit", ExitFailure},
		{"schema", fmt.Errorf("load: %w", &registry.SchemaError{Message: "bad"}), ErrCodeSchema, "", ExitCommandError},
		{"other", errors.New("disk on fire"), ErrCodeGeneric, "", ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, field, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantField, field)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}

func TestMapFieldToErrorCode(t *testing.T) {
	seen := map[string]bool{}
	for _, field := range []string{
		query.FieldCollection, query.FieldMapCollection, query.FieldGeometry, query.FieldPredicate,
		query.FieldDistanceBounds, query.FieldMode, query.FieldPageStart, query.FieldPageLimit,
	} {
		code := MapFieldToErrorCode(field)
		assert.NotEqual(t, ErrCodeGeneric, code, field)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode("colour"))
}
