package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RunMeta records one pipeline run.
type RunMeta struct {
	RunID       string    `json:"run_id"`
	Version     string    `json:"version,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Languages   []string  `json:"languages"`
	DataTypes   []string  `json:"data_types"`
	Steps       []string  `json:"steps"`
	Resolutions []float64 `json:"resolutions"`
	Seed        int64     `json:"seed"`
	Datasets    []string  `json:"datasets"`
	Failures    []string  `json:"failures,omitempty"`
}

// SaveRunMeta writes run metadata as indented JSON.
func SaveRunMeta(path string, meta RunMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run metadata: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadRunMeta reads run metadata written by SaveRunMeta.
func LoadRunMeta(path string) (RunMeta, error) {
	var meta RunMeta
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parsing %s: %w", path, err)
	}
	return meta, nil
}
