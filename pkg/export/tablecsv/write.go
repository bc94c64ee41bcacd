// Package tablecsv writes a statement-table bundle as CSV files: one file
// per statement plus a warnings file. This is a debugging/inspection export;
// the spreadsheet renderer proper consumes the table model directly.
package tablecsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"statement_weaver/pkg/models"
)

// Options controls what the bundle includes.
type Options struct {
	IncludeWarnings bool
	IncludeConcepts bool // add the concept/dimension audit columns
	IndentLabels    bool // prefix labels with depth markers
}

// WriteBundle writes every table (and optionally the warnings) to outputDir.
func WriteBundle(tables []*models.StatementTable, warnings []models.Warning, outputDir string, options Options) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	used := make(map[string]int)
	for _, table := range tables {
		name := fileName(table.Name)
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		if err := writeTable(filepath.Join(outputDir, name+".csv"), table, options); err != nil {
			return err
		}
	}

	if options.IncludeWarnings {
		if err := writeWarnings(filepath.Join(outputDir, "warnings.csv"), warnings); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(path string, table *models.StatementTable, options Options) error {
	header := []string{"label"}
	if options.IncludeConcepts {
		header = append(header, "concept", "dimensions", "depth", "abstract")
	}
	for _, p := range table.Periods {
		header = append(header, p.DisplayLabel())
	}

	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		label := row.Label
		if options.IndentLabels && row.Depth > 0 {
			label = strings.Repeat("  ", row.Depth) + label
		}
		record := []string{label}
		if options.IncludeConcepts {
			record = append(record,
				row.Concept,
				dimsColumn(row.Dims),
				strconv.Itoa(row.Depth),
				strconv.FormatBool(row.Abstract),
			)
		}
		for _, p := range table.Periods {
			cell, ok := row.Cells[p.Key()]
			if !ok || cell.Missing {
				record = append(record, "")
				continue
			}
			record = append(record, cell.Display)
		}
		rows = append(rows, record)
	}

	return writeCSV(path, header, rows)
}

func writeWarnings(path string, warnings []models.Warning) error {
	rows := make([][]string, 0, len(warnings))
	for _, w := range warnings {
		rows = append(rows, []string{string(w.Kind), w.Statement, w.Row, w.Slice, w.Message})
	}
	return writeCSV(path, []string{"kind", "statement", "row", "slice", "message"}, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func dimsColumn(sig models.DimensionSignature) string {
	parts := make([]string, 0, len(sig))
	for _, am := range sig {
		parts = append(parts, am.Axis+"="+am.Member)
	}
	return strings.Join(parts, ";")
}

// fileName sanitizes a statement name into a portable file stem.
func fileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	if s == "" {
		s = "statement"
	}
	return s
}
