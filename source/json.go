package source

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON loads a dataset from a JSON file containing an array of objects.
//
// Each object becomes one record in file order. Numbers decode as float64,
// which the engine's comparison logic handles alongside integer values
// coming from other loaders.
func LoadJSON(slug, path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse JSON dataset: %w", err)
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = Record{Row: row}
	}

	return &Dataset{Slug: slug, Records: records}, nil
}
