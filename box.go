package cr3

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	boxHeaderLen    = 8
	boxExtHeaderLen = 16
)

var errStopWalk = errors.New("stop walk")

// WalkBoxes calls fn for every sibling box in within, in file order.
//
// The same loop serves a file and an in-memory payload (wrap it with bytes.NewReader),
// all reads go through src.ReadAt at absolute offsets. A box that declares a size smaller
// than its header fails with ErrInvalidBoxSize, a box or header that does not fit in
// within fails with ErrBoxOverrunsRange. Returning a non-nil error from fn stops the walk
// and that error is returned.
func WalkBoxes(src io.ReaderAt, within ByteRange, fn func(b Box) error) error {
	pos := within.Start
	for pos < within.End {
		if within.End-pos < boxHeaderLen {
			return formatErr("box header", pos, ErrBoxOverrunsRange)
		}
		hdr, err := readAt(src, pos, boxHeaderLen)
		if err != nil {
			return err
		}

		var b Box
		b.Offset = pos
		b.HeaderLen = boxHeaderLen
		copy(b.Type[:], hdr[4:8])
		size := int64(binary.BigEndian.Uint32(hdr[0:4]))

		if size == 1 {
			if within.End-pos < boxExtHeaderLen {
				return formatErr("extended box header", pos, ErrBoxOverrunsRange)
			}
			ext, err := readAt(src, pos+boxHeaderLen, 8)
			if err != nil {
				return err
			}
			large := binary.BigEndian.Uint64(ext)
			if large > math.MaxInt64 {
				return formatErr("box "+b.Type.String(), pos, ErrBoxOverrunsRange)
			}
			size = int64(large)
			b.HeaderLen = boxExtHeaderLen
		}

		if size < b.HeaderLen {
			return formatErr("box "+b.Type.String(), pos, ErrInvalidBoxSize)
		}
		if size > within.End-pos {
			return formatErr("box "+b.Type.String(), pos, ErrBoxOverrunsRange)
		}
		b.Payload = ByteRange{Start: pos + b.HeaderLen, End: pos + size}

		if err := fn(b); err != nil {
			return err
		}
		pos += size
	}
	return nil
}

// FindBox returns the first box tagged tag among the siblings in within.
// It returns a nil box and a nil error when no box matches.
func FindBox(src io.ReaderAt, within ByteRange, tag BoxType) (*Box, error) {
	var found *Box
	err := WalkBoxes(src, within, func(b Box) error {
		if b.Type == tag {
			found = &b
			return errStopWalk
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		return nil, err
	}
	return found, nil
}

// ReadPayload reads the payload of b into a new buffer.
func ReadPayload(src io.ReaderAt, b *Box) ([]byte, error) {
	if b.Payload.Len() == 0 {
		return []byte{}, nil
	}
	return readAt(src, b.Payload.Start, b.Payload.Len())
}
