package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/climaql/internal/registry"
	"github.com/roach88/climaql/internal/store"
)

// loadRegistry loads the variable catalog at path, or the embedded default
// when path is empty.
func loadRegistry(log zerolog.Logger, path string) (*registry.Registry, error) {
	start := time.Now()

	var (
		reg *registry.Registry
		err error
	)
	if path == "" {
		reg, err = registry.Default()
	} else {
		reg, err = registry.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	source := path
	if source == "" {
		source = "embedded"
	}
	log.Debug().
		Str("source", source).
		Int("leaves", reg.Len()).
		Int("aggregable", reg.AggregableLen()).
		Dur("took", time.Since(start)).
		Msg("registry loaded")

	for _, warning := range reg.Lint() {
		log.Warn().Str("source", source).Msg(warning)
	}
	return reg, nil
}

// readInput reads a file argument; "-" reads stdin.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// openJournal opens the journal at path. Callers close the store.
func openJournal(log zerolog.Logger, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("journal opened")
	return st, nil
}
