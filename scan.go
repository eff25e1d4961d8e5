package cr3

import (
	"errors"
	"io"
)

// ScanJPEGs streams r from the beginning and returns the SOI..EOI byte ranges it contains.
//
// Only the last byte of the previous chunk is kept between reads, so memory use does not
// depend on the stream size. A later SOI replaces a pending one, an EOI closes the pending
// range. On success the read position is restored to the beginning of r.
func ScanJPEGs(r io.ReadSeeker, opts ...func(o *Options)) ([]JPEGRange, error) {
	o := newOptions(opts)

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &IOError{Op: "rewind", Err: err}
	}

	s := jpegScanner{start: -1}
	buf := make([]byte, o.ChunkSize)
	for {
		n, err := r.Read(buf)
		s.feed(buf[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &IOError{Op: "scan", Err: err}
		}
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &IOError{Op: "rewind", Err: err}
	}
	o.logf("found %d JPEG segments in %d bytes", len(s.ranges), s.pos)
	return s.ranges, nil
}

type jpegScanner struct {
	pos     int64 // absolute offset of the next chunk
	prev    byte
	hasPrev bool
	start   int64 // pending SOI offset, -1 if none
	ranges  []JPEGRange
}

func (s *jpegScanner) feed(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	// Marker split between the previous chunk and this one.
	if s.hasPrev && s.prev == markerStart {
		s.marker(chunk[0], s.pos-1)
	}
	for i := 0; i+1 < len(chunk); i++ {
		if chunk[i] == markerStart {
			s.marker(chunk[i+1], s.pos+int64(i))
		}
	}
	s.prev = chunk[len(chunk)-1]
	s.hasPrev = true
	s.pos += int64(len(chunk))
}

func (s *jpegScanner) marker(m byte, at int64) {
	switch {
	case m == markerSOI:
		s.start = at
	case m == markerEOI && s.start >= 0:
		s.ranges = append(s.ranges, JPEGRange{Start: s.start, End: at + 2})
		s.start = -1
	}
}
