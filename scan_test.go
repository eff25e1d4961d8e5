package cr3

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
)

func TestScanJPEGs(t *testing.T) {
	f := makeCR3(t, nil, 200, 9000, 20000)

	for _, chunk := range []int{1, 2, 3, 7, 64, 4096, 1 << 20} {
		r := f.source()
		ranges, err := ScanJPEGs(r, func(o *Options) { o.ChunkSize = chunk })
		if err != nil {
			t.Fatalf("chunk %d: %v", chunk, err)
		}
		if !reflect.DeepEqual(ranges, f.ranges) {
			t.Fatalf("chunk %d: got %v want %v", chunk, ranges, f.ranges)
		}
		for _, rg := range ranges {
			if f.data[rg.Start] != 0xFF || f.data[rg.Start+1] != 0xD8 {
				t.Fatalf("range %v does not start with SOI", rg)
			}
			if f.data[rg.End-2] != 0xFF || f.data[rg.End-1] != 0xD9 {
				t.Fatalf("range %v does not end with EOI", rg)
			}
		}
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil || pos != 0 {
			t.Fatalf("chunk %d: position not restored: %d %v", chunk, pos, err)
		}
	}
}

func TestScanJPEGsMarkerRules(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
		want []JPEGRange
	}{
		{
			name: "later SOI replaces pending",
			data: []byte{0, 0xFF, 0xD8, 1, 2, 0xFF, 0xD8, 3, 0xFF, 0xD9, 0},
			want: []JPEGRange{{Start: 5, End: 10}},
		},
		{
			name: "EOI without SOI",
			data: []byte{0xFF, 0xD9, 0, 0xFF, 0xD8, 0xFF, 0xD9},
			want: []JPEGRange{{Start: 3, End: 7}},
		},
		{
			name: "unterminated",
			data: []byte{0xFF, 0xD8, 1, 2, 3},
		},
		{
			name: "empty",
		},
		{
			name: "fill byte before SOI",
			data: []byte{0xFF, 0xFF, 0xD8, 0xFF, 0xD9},
			want: []JPEGRange{{Start: 1, End: 5}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, chunk := range []int{1, 2, 3, 4096} {
				got, err := ScanJPEGs(bytes.NewReader(tc.data), func(o *Options) { o.ChunkSize = chunk })
				if err != nil {
					t.Fatalf("chunk %d: %v", chunk, err)
				}
				if len(got) != len(tc.want) || (len(got) > 0 && !reflect.DeepEqual(got, tc.want)) {
					t.Fatalf("chunk %d: got %v want %v", chunk, got, tc.want)
				}
			}
		})
	}
}

type failingReader struct {
	*bytes.Reader
	err error
}

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestScanJPEGsReadError(t *testing.T) {
	_, err := ScanJPEGs(failingReader{Reader: bytes.NewReader(nil), err: io.ErrClosedPipe})
	var ioErr *IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected *IOError, got %v", err)
	}
}
