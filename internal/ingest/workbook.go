package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// UnsupportedFileError rejects non-tabular uploads up front.
type UnsupportedFileError struct {
	Ext string
}

func (e *UnsupportedFileError) Error() string {
	if e.Ext == ".xls" {
		return "legacy .xls files are not supported: re-save the sheet as .xlsx and upload again"
	}
	return fmt.Sprintf("unsupported file type %q: upload .xlsx, .xlsm or .csv", e.Ext)
}

// ReadGrid loads the used range of the uploaded file as a 2-D grid of
// cell text. Only the first sheet of a workbook is read; supplier
// dispatch sheets are single-sheet documents.
func ReadGrid(r io.Reader, filename string) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		sheet := f.GetSheetName(0)
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet rows: %w", err)
		}
		return rows, nil
	case ".csv":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		return rows, nil
	default:
		return nil, &UnsupportedFileError{Ext: ext}
	}
}
