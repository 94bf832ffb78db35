// Package export writes fetched bond records to CSV reports.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jqliu/bondflow/internal/common"
	"github.com/jqliu/bondflow/internal/model"
)

// utf8BOM prefixes output files so Excel opens the Chinese issuer names
// correctly.
const utf8BOM = "\xef\xbb\xbf"

// Header is the column order of every report.
var Header = []string{"ISIN", "Bond Code", "Issuer", "Bond Type", "Issue Date", "Latest Rating"}

// WriteOptions configures a CSV write.
type WriteOptions struct {
	// Directory receives the file and is created if missing.
	Directory string
	// Filename overrides the generated timestamped name.
	Filename string
	// Label feeds the generated filename, typically the issue year.
	Label string
}

// DefaultFilename builds a timestamped report name like
// bonds_2023_20230809_153012.csv.
func DefaultFilename(label string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	if label == "" {
		return fmt.Sprintf("bonds_%s.csv", timestamp)
	}
	return fmt.Sprintf("bonds_%s_%s.csv", label, timestamp)
}

// Write saves bonds as a CSV file and returns the path written.
func Write(bonds []model.Bond, opts WriteOptions) (string, error) {
	if len(bonds) == 0 {
		return "", common.ErrNoBonds
	}

	dir := opts.Directory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := opts.Filename
	if filename == "" {
		filename = DefaultFilename(opts.Label, time.Now())
	}
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return "", fmt.Errorf("failed to write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for _, b := range bonds {
		row := []string{b.ISIN, b.Code, b.Issuer, b.BondType, b.IssueDate, b.Rating}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", b.ISIN, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush CSV: %w", err)
	}

	return path, nil
}

// Read loads a previously written report. It tolerates a leading BOM and
// verifies the header.
func Read(path string) ([]model.Bond, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content := strings.TrimPrefix(string(data), utf8BOM)
	r := csv.NewReader(strings.NewReader(content))

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty CSV file")
	}

	header := rows[0]
	if len(header) != len(Header) {
		return nil, fmt.Errorf("unexpected header with %d columns", len(header))
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected header column %q, want %q", header[i], col)
		}
	}

	bonds := make([]model.Bond, 0, len(rows)-1)
	for _, row := range rows[1:] {
		bond := model.Bond{
			ISIN:      row[0],
			Code:      row[1],
			Issuer:    row[2],
			BondType:  row[3],
			IssueDate: row[4],
			Rating:    row[5],
		}
		bond.Hash = bond.GenerateHash()
		bonds = append(bonds, bond)
	}

	return bonds, nil
}
