package tabular

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readSpreadsheet loads the first sheet of a workbook and locates its header.
func readSpreadsheet(data []byte, opts Options) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FormatError{Reason: "not a readable workbook", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &FormatError{Reason: "workbook has no sheets"}
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &FormatError{Reason: "cannot read sheet " + sheet, Err: err}
	}

	cv := newCellConverter(f, sheet)
	var (
		grid    [][]string
		numbers []int
	)
	for r, row := range raw {
		cells := make([]string, len(row))
		for c, v := range row {
			cells[c] = cv.convert(r+1, c+1, v)
		}
		if isBlank(cells) {
			continue
		}
		grid = append(grid, cells)
		numbers = append(numbers, r+1)
	}
	if len(grid) == 0 {
		return nil, &FormatError{Reason: "sheet " + sheet + " is empty"}
	}

	h := LocateHeader(grid, opts.HeaderScanRows)
	headers := grid[h]
	width := len(headers)
	for _, row := range grid[h+1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	full := make([]string, width)
	for i := range full {
		if i < len(headers) && headers[i] != "" {
			full[i] = headers[i]
		} else {
			full[i] = columnName(i + 1)
		}
	}

	return &RawTable{
		Format:     FormatSpreadsheet,
		HeaderLine: numbers[h],
		Headers:    full,
		Rows:       shape(grid[h+1:], width),
		Lines:      numbers[h+1:],
	}, nil
}

// cellConverter renders raw cell values as text, turning date-formatted
// serial numbers into YYYY-MM-DD. Style lookups are cached per style index.
type cellConverter struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool
}

func newCellConverter(f *excelize.File, sheet string) *cellConverter {
	cv := &cellConverter{f: f, sheet: sheet, isDate: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		cv.date1904 = *props.Date1904
	}
	return cv
}

func (cv *cellConverter) convert(row, col int, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return v
	}
	typ, _ := cv.f.GetCellType(cv.sheet, axis)
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
	case excelize.CellTypeDate:
		if len(v) >= 10 {
			return v[:10]
		}
		return v
	default:
		return v
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	if cv.dateStyled(axis) {
		if t, err := excelize.ExcelDateToTime(n, cv.date1904); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return formatNumber(n)
}

func (cv *cellConverter) dateStyled(axis string) bool {
	idx, err := cv.f.GetCellStyle(cv.sheet, axis)
	if err != nil || idx == 0 {
		return false
	}
	if d, ok := cv.isDate[idx]; ok {
		return d
	}
	d := false
	if st, err := cv.f.GetStyle(idx); err == nil && st != nil {
		d = isDateNumFmt(st.NumFmt)
		if st.CustomNumFmt != nil {
			d = isDateFormatCode(*st.CustomNumFmt)
		}
	}
	cv.isDate[idx] = d
	return d
}

// isDateNumFmt reports whether a built-in number format id renders a date.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code renders a date.
// Literal text and bracketed sections (colours, locales) are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	s := strings.ToLower(b.String())
	return strings.ContainsAny(s, "yd")
}

// formatNumber prints integral values without a fraction and everything
// else with four decimals.
func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'f', 4, 64)
}
