package cr3

import (
	"bytes"
	"errors"
	"io"
)

var (
	boxFtyp  = BoxType{'f', 't', 'y', 'p'}
	brandCRX = []byte("crx ")
)

// IsCR3 reads the leading ftyp box of r and reports whether its major brand is "crx ".
// Streams shorter than a box header are not CR3.
func IsCR3(r io.Reader) (bool, error) {
	head := make([]byte, boxHeaderLen+len(brandCRX))
	if _, err := io.ReadFull(r, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, &IOError{Op: "read ftyp", Err: err}
	}
	return bytes.Equal(head[4:8], boxFtyp[:]) && bytes.Equal(head[8:], brandCRX), nil
}
