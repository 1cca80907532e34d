package pipeline

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
	"github.com/albapepper/scoracle-fantasy/internal/scoring"
	"github.com/albapepper/scoracle-fantasy/internal/stats"
	"github.com/albapepper/scoracle-fantasy/internal/tabular"
)

// LoadLong reads the long stats table at path. A missing file is ErrNoInput.
func LoadLong(path string) ([]stats.Payload, diag.Report, error) {
	long, err := tabular.ReadFile(path, tabular.ReadLong)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, diag.Report{}, fmt.Errorf("%w: %s", ErrNoInput, path)
	}
	if err != nil {
		return nil, diag.Report{}, err
	}
	return long.Payloads, long.Report, nil
}

// LoadWide reads a wide stats table at path. A missing file is ErrNoInput.
func LoadWide(path string) ([]stats.Record, error) {
	records, err := tabular.ReadFile(path, tabular.ReadWide)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, path)
	}
	return records, err
}

// LoadScoring reads a CSV or YAML scoring file. A missing file is
// ErrNoScoring: scoring from defaults alone must be asked for explicitly.
func LoadScoring(path string) ([]scoring.Item, diag.Report, error) {
	cfg, err := tabular.LoadScoring(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, diag.Report{}, fmt.Errorf("%w: %s", ErrNoScoring, path)
	}
	if err != nil {
		return nil, diag.Report{}, err
	}
	return cfg.Items, cfg.Report, nil
}
