package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFingerprintDeterminism(t *testing.T) {
	bind := map[string]any{
		"@map":        "chelsa_map",
		"minDistance": 0.0,
		"maxDistance": 1000.0,
	}

	fp1, err := QueryFingerprint("FOR row IN @@map RETURN row._key", bind)
	require.NoError(t, err)
	fp2, err := QueryFingerprint("FOR row IN @@map RETURN row._key", bind)
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestQueryFingerprintChangesWithInput(t *testing.T) {
	bind := map[string]any{"maxDistance": 1000.0}

	base := MustQueryFingerprint("Q", bind)
	assert.NotEqual(t, base, MustQueryFingerprint("Q2", bind), "query text")
	assert.NotEqual(t, base, MustQueryFingerprint("Q", map[string]any{"maxDistance": 1001.0}), "bind value")
	assert.NotEqual(t, base, MustQueryFingerprint("Q", map[string]any{"minDistance": 1000.0}), "bind name")
}

func TestQueryFingerprintIgnoresNumericSpelling(t *testing.T) {
	assert.Equal(t,
		MustQueryFingerprint("Q", map[string]any{"n": 1000}),
		MustQueryFingerprint("Q", map[string]any{"n": 1000.0}),
	)
}

func TestQueryFingerprintNilBindVars(t *testing.T) {
	assert.Equal(t, MustQueryFingerprint("Q", nil), MustQueryFingerprint("Q", map[string]any{}))
}

func TestDomainSeparation(t *testing.T) {
	bind := map[string]any{"a": "b"}
	canonical, err := MarshalCanonical(bind)
	require.NoError(t, err)

	h1 := hashWithDomain(DomainQuery, canonical)
	h2 := hashWithDomain(DomainBindVars, canonical)
	assert.NotEqual(t, h1, h2)

	bh, err := BindVarsHash(bind)
	require.NoError(t, err)
	assert.Equal(t, h2, bh)
}

func TestQueryFingerprintRejectsNonFinite(t *testing.T) {
	_, err := QueryFingerprint("Q", map[string]any{"x": nan()})
	assert.Error(t, err)
	assert.Panics(t, func() { MustQueryFingerprint("Q", map[string]any{"x": nan()}) })
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
