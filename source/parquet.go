package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// LoadParquet loads a dataset from a parquet file.
//
// Each row is read as a map keyed by column name. The entire file is loaded
// into memory; datasets are expected to be small enough to query in-process.
func LoadParquet(slug, path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	reader := parquet.NewReader(pqFile)
	defer func() { _ = reader.Close() }()

	var records []Record
	for {
		row := make(map[string]interface{})
		err := reader.Read(&row)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		records = append(records, Record{Row: row})
	}

	return &Dataset{Slug: slug, Records: records}, nil
}
