package dataprocessing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"medcli/internal/errors"
	"medcli/pkg/contracts/domain"
)

// loadExcel parses the first worksheet of an XLSX export. Rows flow through
// the same header validation and cell coercion as the CSV path.
func (l *Loader) loadExcel(ctx context.Context, path string) (*LoadResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewIOError("failed to open workbook", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewSchemaError("workbook has no worksheets", nil)
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewIOError("failed to read worksheet", path, err)
	}
	if len(rows) == 0 {
		return nil, errors.NewSchemaError("worksheet is empty", nil)
	}

	l.logger.DebugContext(ctx, "reading worksheet",
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	offset, err := validateHeader(rows[0])
	if err != nil {
		return nil, err
	}

	// GetRows drops trailing empty cells, so pad short rows back to full
	// width; a fully empty row is spreadsheet padding, not data.
	expectedLen := len(domain.RawColumns()) + offset
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		for len(row) < expectedLen {
			row = append(row, "")
		}
		data = append(data, row)
	}

	return l.buildRecords(ctx, path, offset, data), nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
