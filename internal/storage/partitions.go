package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Benny93/morphnet/internal/graph"
)

// SavePartitions writes communities as a JSON object keyed by resolution
// ("0.0", "0.1", ...), each value a list of lexeme lists.
func SavePartitions(path string, communities graph.CommunityMap) error {
	doc := make(map[string][][]string, len(communities))
	for r, comms := range communities {
		lists := make([][]string, len(comms))
		for i, c := range comms {
			lists[i] = append([]string{}, c...)
		}
		doc[graph.FormatResolution(r)] = lists
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling partitions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadPartitions reads a document written by SavePartitions, restoring
// numeric resolution keys.
func LoadPartitions(path string) (graph.CommunityMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc map[string][][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make(graph.CommunityMap, len(doc))
	for key, lists := range doc {
		r, err := graph.ParseResolution(key)
		if err != nil {
			return nil, fmt.Errorf("resolution key %q: %w", key, err)
		}
		comms := make(graph.Communities, len(lists))
		for i, l := range lists {
			comms[i] = graph.Community(l)
		}
		out[r] = comms
	}
	return out, nil
}
