package cr3

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is a random-access byte source of known length.
//
// *bytes.Reader, *io.SectionReader and *File implement it.
type Source interface {
	io.ReaderAt
	Size() int64
}

// File is a Source backed by an open file.
type File struct {
	*os.File
	size int64
}

// OpenFile opens path for reading and records its length.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &IOError{Op: "stat", Err: err}
	}
	return &File{File: f, size: st.Size()}, nil
}

// Size returns the file length at open time.
func (f *File) Size() int64 { return f.size }

// readAt reads exactly n bytes at absolute offset off.
func readAt(src io.ReaderAt, off, n int64) ([]byte, error) {
	buf := make([]byte, n)
	got, err := src.ReadAt(buf, off)
	if int64(got) == n {
		return buf, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, &IOError{Op: fmt.Sprintf("read %d bytes at %d", n, off), Err: err}
}
