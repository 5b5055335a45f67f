package tabular

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// fallbackDecoders are tried in order when the bytes are not clean UTF-8.
// GB2312 is a subset of GBK, so the GBK attempt covers it.
// Latin-1 maps every byte and therefore always terminates the chain.
var fallbackDecoders = []struct {
	name string
	enc  encoding.Encoding
}{
	{"gbk", simplifiedchinese.GBK},
	{"gb18030", simplifiedchinese.GB18030},
	{"utf-8-bom", unicode.UTF8BOM},
	{"latin1", charmap.ISO8859_1},
}

// decodeText returns data as a Go string together with the name of the
// decoder that produced it.
func decodeText(data []byte) (string, string) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) && !bytes.ContainsRune(data, utf8.RuneError) {
		return string(data), "utf-8"
	}
	for _, d := range fallbackDecoders {
		out, _, err := transform.Bytes(d.enc.NewDecoder(), data)
		if err != nil {
			continue
		}
		if !bytes.ContainsRune(out, utf8.RuneError) {
			return string(out), d.name
		}
	}
	return string(bytes.ToValidUTF8(data, []byte("�"))), "utf-8"
}
