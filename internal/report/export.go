package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// WriteCSV renders the report as CSV, header row first.
func WriteCSV(r *Report, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}
	for _, row := range r.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("could not write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("could not flush csv: %w", err)
	}
	return nil
}

// WriteXLSX renders the report as an XLSX workbook with a single
// "Attendance" sheet, a bold header row and auto-sized columns.
func WriteXLSX(r *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("could not create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("could not drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return fmt.Errorf("could not create header style: %w", err)
	}

	for i, col := range r.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("could not write header cell: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("could not style header cell: %w", err)
		}
	}

	for rowIdx, row := range r.Rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("could not write cell: %w", err)
			}
		}
	}

	// Column width follows the longest cell, plus padding, capped
	for i, col := range r.Columns {
		width := len(col)
		for _, row := range r.Rows {
			if i < len(row) && len(row[i]) > width {
				width = len(row[i])
			}
		}
		width += 2
		if width > constants.MaxExportColumnWidth {
			width = constants.MaxExportColumnWidth
		}
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			return fmt.Errorf("could not set column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("could not write workbook: %w", err)
	}
	return nil
}

// Export writes the report as a timestamped file under dir and returns its
// path. format is "csv" or "xlsx".
func Export(r *Report, dir, format string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create export directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.%s", slugify(r.Title), time.Now().Format("20060102_150405"), format)
	path := filepath.Join(dir, name)

	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := WriteCSV(r, &buf); err != nil {
			return "", err
		}
	case "xlsx":
		if err := WriteXLSX(r, &buf); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("could not write export file: %w", err)
	}
	return path, nil
}

// slugify turns a report title into a safe file name fragment.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
