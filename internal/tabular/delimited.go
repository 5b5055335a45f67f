package tabular

import (
	"strings"
)

var candidateDelimiters = []rune{',', '\t', ';', '|'}

// readDelimited decodes and splits delimited text. The first non-empty line
// is the header. Quoted fields may not span lines.
func readDelimited(data []byte) (*RawTable, error) {
	text, enc := decodeText(data)

	var (
		lines   []string
		numbers []int
	)
	for i, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
		numbers = append(numbers, i+1)
	}
	if len(lines) == 0 {
		return nil, &FormatError{Reason: "no content after decoding"}
	}

	delim := detectDelimiter(lines[0])
	headers := splitLine(lines[0], delim)
	for i, h := range headers {
		if h == "" {
			headers[i] = columnName(i + 1)
		}
	}

	t := &RawTable{
		Format:     FormatDelimited,
		Encoding:   enc,
		Delimiter:  delim,
		HeaderLine: numbers[0],
		Headers:    headers,
	}
	for i := 1; i < len(lines); i++ {
		cells := splitLine(lines[i], delim)
		if isBlank(cells) {
			continue
		}
		t.Rows = append(t.Rows, cells)
		t.Lines = append(t.Lines, numbers[i])
	}
	t.Rows = shape(t.Rows, len(headers))
	return t, nil
}

// detectDelimiter picks the candidate that yields the most columns on line,
// requiring at least two. Comma wins when nothing splits.
func detectDelimiter(line string) rune {
	best, most := ',', 1
	for _, d := range candidateDelimiters {
		if n := len(splitLine(line, d)); n > most {
			best, most = d, n
		}
	}
	return best
}

// splitLine splits one line on delim. A field may be wrapped in double or
// single quotes; inside it the delimiter is literal and a doubled quote
// stands for one quote character. Fields are trimmed.
func splitLine(line string, delim rune) []string {
	var (
		fields  []string
		cur     strings.Builder
		quote   rune
		inQuote bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == quote:
			if i+1 < len(runes) && runes[i+1] == quote {
				cur.WriteRune(r)
				i++
				continue
			}
			inQuote = false
		case inQuote:
			cur.WriteRune(r)
		case (r == '"' || r == '\'') && strings.TrimSpace(cur.String()) == "":
			cur.Reset()
			inQuote, quote = true, r
		case r == delim:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}
