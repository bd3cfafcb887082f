package signalfile

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText strips a UTF-8 BOM and falls back to Windows-1252 for files
// saved by older spreadsheet tools.
func decodeText(payload []byte) (string, error) {
	var dec transform.Transformer = unicode.UTF8BOM.NewDecoder()
	if !utf8.Valid(payload) {
		dec = charmap.Windows1252.NewDecoder()
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(payload), dec))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
