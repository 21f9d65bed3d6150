// Package source provides in-memory datasets for the query engine.
//
// A Dataset is an ordered, finite sequence of records identified by a slug.
// Datasets are loaded once (from JSON or parquet files) and then borrowed
// read-only by query execution. The Registry maps slugs to datasets and
// backs the cross-reference redirect performed during field resolution.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record is a single row of a dataset. The engine never mutates it.
type Record struct {
	Row map[string]interface{}
}

// Dataset is an ordered sequence of records registered under a slug.
type Dataset struct {
	Slug    string
	Records []Record
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Registry maps dataset slugs to datasets.
//
// It is populated during setup and read-only afterwards; concurrent reads
// are safe, concurrent mutation is not.
type Registry struct {
	datasets map[string]*Dataset
}

// NewRegistry creates an empty dataset registry.
func NewRegistry() *Registry {
	return &Registry{datasets: make(map[string]*Dataset)}
}

// Add registers a dataset under its slug, replacing any previous dataset
// with the same slug.
func (r *Registry) Add(ds *Dataset) {
	r.datasets[ds.Slug] = ds
}

// Dataset returns the dataset registered under slug.
func (r *Registry) Dataset(slug string) (*Dataset, bool) {
	ds, ok := r.datasets[slug]
	return ds, ok
}

// Slugs returns the registered slugs in sorted order.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.datasets))
	for slug := range r.datasets {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// LoadDir loads every *.json and *.parquet file in dir into a registry.
// The file name without extension becomes the dataset slug.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	registry := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		ext := filepath.Ext(entry.Name())
		slug := strings.TrimSuffix(entry.Name(), ext)

		var ds *Dataset
		switch ext {
		case ".json":
			ds, err = LoadJSON(slug, path)
		case ".parquet":
			ds, err = LoadParquet(slug, path)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset %s: %w", slug, err)
		}
		registry.Add(ds)
	}

	return registry, nil
}
