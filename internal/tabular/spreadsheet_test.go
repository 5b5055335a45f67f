package tabular

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// titledWorkbook builds a sheet with a title block above the header on row 3.
func titledWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	set := func(cell string, v any) {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	set("A1", "客户持仓导出")
	set("A2", "导出人")
	set("B2", "admin")
	for i, h := range []string{"客户号", "基金代码", "购买金额", "购买份额", "购买日期", "备注"} {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		require.NoError(t, err)
		set(cell, h)
	}
	set("A4", "123456")
	set("B4", 5827)
	set("C4", 1000.5)
	set("D4", 500)
	set("E4", 45356)
	set("F4", "  first buy  ")
	set("A6", "654321")
	set("B6", "000002")

	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "E4", "E4", style))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRead_Spreadsheet_TitledSheet(t *testing.T) {
	tbl, err := Read("export.xlsx", titledWorkbook(t), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, FormatSpreadsheet, tbl.Format)
	assert.Equal(t, 3, tbl.HeaderLine)
	assert.Equal(t, []string{"客户号", "基金代码", "购买金额", "购买份额", "购买日期", "备注"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"123456", "5827", "1000.5000", "500", "2024-03-05", "first buy"}, tbl.Rows[0])
	assert.Equal(t, []string{"654321", "000002", "", "", "", ""}, tbl.Rows[1])
	assert.Equal(t, []int{4, 6}, tbl.Lines)
}

func TestRead_Spreadsheet_Corrupt(t *testing.T) {
	data := append([]byte{0x50, 0x4B, 0x03, 0x04}, []byte("not really a zip")...)
	_, err := Read("broken.xlsx", data, DefaultOptions())
	var fe *FormatError
	require.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, "broken.xlsx", fe.Name)
}

func TestRead_LegacyWorkbookRejected(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"holdings.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
		{"upload", []byte{0xD0, 0xCF, 0x11, 0xE0, 0x00}},
		{"export.XLS", []byte("<html><table></table></html>")},
	}
	for _, c := range cases {
		_, err := Read(c.name, c.data, DefaultOptions())
		var fe *FormatError
		require.Truef(t, errors.As(err, &fe), "%s: got %v", c.name, err)
		assert.Equal(t, c.name, fe.Name)
		assert.Equal(t, legacyWorkbookReason, fe.Reason)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "5827", formatNumber(5827))
	assert.Equal(t, "-3", formatNumber(-3))
	assert.Equal(t, "1000.5000", formatNumber(1000.5))
	assert.Equal(t, "0.1235", formatNumber(0.12345))
}

func TestDateFormats(t *testing.T) {
	assert.True(t, isDateNumFmt(14))
	assert.True(t, isDateNumFmt(57))
	assert.False(t, isDateNumFmt(0))
	assert.False(t, isDateNumFmt(4))

	assert.True(t, isDateFormatCode("yyyy-mm-dd"))
	assert.True(t, isDateFormatCode(`yyyy"年"m"月"d"日"`))
	assert.False(t, isDateFormatCode("#,##0.00"))
	assert.False(t, isDateFormatCode(`0.00" days"`))
	assert.False(t, isDateFormatCode("[Red]0.00"))
}
