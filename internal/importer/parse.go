package importer

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// xlsMaxRows caps how many rows the legacy XLS reader walks.
const xlsMaxRows = 65535

// ParseFile dispatches on the file extension and returns the raw cell
// matrix. The CSV branch expects the Naturasoft pipe-delimited layout.
func ParseFile(name string, r io.Reader) ([][]string, error) {

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return ParseXLSX(r)
	case ".xls":
		return ParseXLS(r)
	case ".csv", ".txt":
		return ParseCSV(r, '|')
	default:
		return nil, ErrUnknownExtension
	}
}

// ParseXLSX reads the first sheet of an XLSX workbook.
func ParseXLSX(r io.Reader) ([][]string, error) {

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed excelize.OpenReader")
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed GetRows(%s)", sheets[0])
	}

	return rows, nil
}

// ParseXLS reads a legacy BIFF workbook. The reader needs a seekable
// file, so the stream is spooled to a temp file first.
func ParseXLS(r io.Reader) ([][]string, error) {

	tmp, err := os.CreateTemp("", "nsa-import-*.xls")
	if err != nil {
		return nil, errors.Wrap(err, "failed os.CreateTemp")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	_, err = io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return nil, errors.Wrap(err, "failed io.Copy to temp file")
	}
	err = tmp.Close()
	if err != nil {
		return nil, errors.Wrap(err, "failed tmp.Close")
	}

	wb, err := xls.Open(tmp.Name(), "utf-8")
	if err != nil {
		return nil, errors.Wrap(err, "failed xls.Open")
	}

	rows := wb.ReadAllCells(xlsMaxRows)
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return rows, nil
}

// ParseCSV reads a delimited text file into a cell matrix. A UTF-8 BOM
// is stripped; rows may have a variable number of fields.
func ParseCSV(r io.Reader, delimiter rune) ([][]string, error) {

	br := bufio.NewReader(r)

	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to read file")
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed csv.ReadAll")
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return rows, nil
}
