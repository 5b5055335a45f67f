package tabular

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// DetectFormat decides how data should be read. Magic bytes win over the
// file extension; anything unrecognised is treated as delimited text.
func DetectFormat(name string, data []byte) Format {
	if bytes.HasPrefix(data, zipMagic) || bytes.HasPrefix(data, oleMagic) {
		return FormatSpreadsheet
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xls":
		return FormatSpreadsheet
	default:
		return FormatDelimited
	}
}

const legacyWorkbookReason = "legacy .xls workbooks are not supported, save the sheet as .xlsx or .csv"

// isLegacyWorkbook reports a BIFF workbook: OLE container bytes, or an .xls
// name on content that is not an OOXML zip.
func isLegacyWorkbook(name string, data []byte) bool {
	if bytes.HasPrefix(data, oleMagic) {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".xls") && !bytes.HasPrefix(data, zipMagic)
}

// Read decodes data into a RawTable. name is only used for format detection
// and error messages.
//
// Errors:
//   - *FormatError when the content is empty, undecodable or not a workbook.
func Read(name string, data []byte, opts Options) (*RawTable, error) {
	if opts.HeaderScanRows < 1 {
		opts.HeaderScanRows = DefaultOptions().HeaderScanRows
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &FormatError{Name: name, Reason: "file is empty"}
	}

	var (
		t   *RawTable
		err error
	)
	switch DetectFormat(name, data) {
	case FormatSpreadsheet:
		if isLegacyWorkbook(name, data) {
			return nil, &FormatError{Name: name, Reason: legacyWorkbookReason}
		}
		t, err = readSpreadsheet(data, opts)
	default:
		t, err = readDelimited(data)
	}
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Name = name
			return nil, fe
		}
		return nil, &FormatError{Name: name, Reason: "read failed", Err: err}
	}
	return t, nil
}
