package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/libredata/lql/output"
	"github.com/libredata/lql/query"
	"github.com/libredata/lql/server"
	"github.com/libredata/lql/source"
)

var (
	dataFlag    = flag.String("data", "", "directory containing datasets (*.json, *.parquet)")
	sourceFlag  = flag.String("source", "", "slug of the dataset to query")
	queryFlag   = flag.String("q", "", "LQL query string (e.g. \"age__gte=21&_group_by=city\")")
	formatFlag  = flag.String("f", "table", "output format for row results: json, jsonl, csv, table")
	limitFlag   = flag.Int("limit", server.DefaultLimit, "maximum number of rows returned")
	serveFlag   = flag.String("serve", "", "serve datasets over HTTP on this address instead of running one query")
	verboseFlag = flag.Bool("v", false, "enable debug logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -data <dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Query datasets with LQL parameters.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -data ./data -source people -q \"age__gte=21\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -data ./data -source people -q \"_aggregate=(total:Count(*))&_group_by=city\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -data ./data -serve :8080\n", os.Args[0])
	}

	flag.Parse()

	if *limitFlag < 0 {
		fmt.Fprintf(os.Stderr, "Error: -limit must be non-negative, got %d\n", *limitFlag)
		os.Exit(1)
	}
	if *dataFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: missing -data directory\n\n")
		flag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	registry, err := source.LoadDir(*dataFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading datasets: %v\n", err)
		os.Exit(1)
	}

	if *serveFlag != "" {
		srv := server.New(registry, server.Options{Limit: *limitFlag, Logger: logger})
		if err := srv.Run(*serveFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *sourceFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: missing -source slug\n")
		fmt.Fprintf(os.Stderr, "Available sources: %v\n", registry.Slugs())
		os.Exit(1)
	}
	dataset, ok := registry.Dataset(*sourceFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown source '%s'\n", *sourceFlag)
		fmt.Fprintf(os.Stderr, "Available sources: %v\n", registry.Slugs())
		os.Exit(1)
	}

	params, err := parseQueryString(*queryFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing query: %v\n", err)
		os.Exit(1)
	}

	engine := query.New(dataset, query.Options{
		Limit:    *limitFlag,
		Resolver: registry,
		Logger:   logger,
	})

	result, err := engine.Execute(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := render(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
}

// parseQueryString decodes an LQL query string into the engine's flat
// parameter map, keeping the first value of any repeated parameter.
func parseQueryString(q string) (map[string]string, error) {
	values, err := url.ParseQuery(q)
	if err != nil {
		return nil, err
	}
	params := make(map[string]string, len(values))
	for name, vals := range values {
		if len(vals) > 0 {
			params[name] = vals[0]
		}
	}
	return params, nil
}

// render writes the result to stdout: row results use the selected
// formatter, nested results (groups, aggregates) are always JSON.
func render(result *query.Result) error {
	rows, ok := result.Data.([]map[string]interface{})
	if !ok {
		return output.EncodeJSON(os.Stdout, result.Data)
	}

	var formatter output.Formatter
	switch *formatFlag {
	case "json", "jsonl":
		formatter = output.NewJSONFormatter(os.Stdout)
	case "csv":
		formatter = output.NewCSVFormatter(os.Stdout)
	case "table":
		formatter = output.NewTableFormatter(os.Stdout)
	default:
		return fmt.Errorf("unsupported format %q (supported: json, jsonl, csv, table)", *formatFlag)
	}

	return formatter.Format(rows)
}
