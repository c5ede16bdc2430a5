package lblannotate

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// maxObjectSize bounds the number of bytes read for a single image object.
const maxObjectSize = 64 << 20

// readAll reads r to the end. It fails if r holds more than maxObjectSize bytes.
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxObjectSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxObjectSize {
		return nil, fmt.Errorf("object exceeds %d bytes", maxObjectSize)
	}

	return data, nil
}

// runeCount is the number of characters in s, as used for text width estimates.
func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
