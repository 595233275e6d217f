package backend

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeSource returns src as UTF-8 text. A UTF-16 byte order mark
// selects UTF-16 decoding and a UTF-8 one is dropped. Invalid UTF-8 is
// replaced with U+FFFD.
func DecodeSource(src []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, src)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
