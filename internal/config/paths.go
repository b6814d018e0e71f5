package config

import (
	"path/filepath"

	"github.com/Benny93/morphnet/internal/formatives"
)

// Paths resolves the data layout under a root directory:
//
//	raw/formatives/<lang>_formatives.csv
//	processed/simulated/<lang>_formatives_<type>.csv
//	processed/graphs/                      (graph store)
//	results/community_detection/community_detection_<lang>_<type>.json
//	results/hierarchy/<lang>_<type>_hierarchy_average.csv
type Paths struct {
	Root string
}

// Paths returns the data layout of the configured data directory.
func (c *Config) Paths() Paths {
	return Paths{Root: c.DataDir}
}

// RawDir holds the observed formatives tables.
func (p Paths) RawDir() string {
	return filepath.Join(p.Root, "raw", "formatives")
}

// SimulatedDir holds the null-model tables.
func (p Paths) SimulatedDir() string {
	return filepath.Join(p.Root, "processed", "simulated")
}

// GraphsDir is the graph store directory.
func (p Paths) GraphsDir() string {
	return filepath.Join(p.Root, "processed", "graphs")
}

// CommunitiesDir holds the partitions documents.
func (p Paths) CommunitiesDir() string {
	return filepath.Join(p.Root, "results", "community_detection")
}

// HierarchyDir holds the hierarchy reports.
func (p Paths) HierarchyDir() string {
	return filepath.Join(p.Root, "results", "hierarchy")
}

// MetaFile is the run metadata written after each pipeline run.
func (p Paths) MetaFile() string {
	return filepath.Join(p.Root, "results", "meta.json")
}

// RawFile returns the observed formatives table of a language.
func (p Paths) RawFile(language string) string {
	return filepath.Join(p.RawDir(), formatives.RawFileName(language))
}

// SimulatedFile returns a null-model table of a language.
func (p Paths) SimulatedFile(language string, dt formatives.DataType) string {
	return filepath.Join(p.SimulatedDir(), formatives.SimulatedFileName(language, dt))
}

// InputFile returns the table the graph of a data type is built from.
func (p Paths) InputFile(language string, dt formatives.DataType) string {
	if dt.IsSimulated() {
		return p.SimulatedFile(language, dt)
	}
	return p.RawFile(language)
}

// CommunitiesFile returns the partitions document of a dataset.
func (p Paths) CommunitiesFile(language string, dt formatives.DataType) string {
	return filepath.Join(p.CommunitiesDir(), "community_detection_"+language+"_"+string(dt)+".json")
}

// HierarchyFile returns the hierarchy report of a dataset.
func (p Paths) HierarchyFile(language string, dt formatives.DataType) string {
	return filepath.Join(p.HierarchyDir(), language+"_"+string(dt)+"_hierarchy_average.csv")
}
