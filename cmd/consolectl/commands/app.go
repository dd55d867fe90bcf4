package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/diagnosis/checkin-console/internal/csvimport"
	"github.com/diagnosis/checkin-console/pkg/config"
)

// AppContext holds what every command needs.
type AppContext struct {
	Cfg *config.Config
}

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func parseKindFlag(s string) (csvimport.Kind, error) {
	kind, ok := csvimport.ParseKind(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return "", fmt.Errorf("unknown kind %q (want resident or staff)", s)
	}
	return kind, nil
}

// parseFile runs a CSV or XLSX file through the import pipeline.
func parseFile(kind csvimport.Kind, path string, maxBytes int64) (*csvimport.Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if maxBytes > 0 && int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxBytes)
	}

	if csvimport.IsXLSX(filepath.Base(path), "") {
		return csvimport.ParseXLSX(kind, bytes.NewReader(raw))
	}
	return csvimport.Parse(kind, csvimport.DecodeText(raw)), nil
}

func printErrors(w io.Writer, errs []csvimport.ValidationError) {
	for _, e := range errs {
		if e.IsStructural() {
			fmt.Fprintf(w, "  ! %s\n", e.Message)
			continue
		}
		src := ""
		if e.Source == csvimport.SourceServer {
			src = " [server]"
		}
		fmt.Fprintf(w, "  - row %d%s: %s\n", e.RowIndex+1, src, e.Message)
	}
}
