package cr3

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	ifdEntrySize = 12
	tiffHdrSize  = 8
)

// IFDEntry is one 12-byte TIFF directory entry.
type IFDEntry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value uint32 // the value itself when it fits in 4 bytes, an offset otherwise
}

var typeSizes = map[uint16]int64{
	1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1,
	7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8, 13: 4,
}

// ValueSize returns the byte size of the entry value, false for unknown types.
func (e IFDEntry) ValueSize() (int64, bool) {
	s, ok := typeSizes[e.Type]
	if !ok {
		return 0, false
	}
	return s * int64(e.Count), true
}

// IFD0 is the primary image directory of a TIFF blob.
type IFD0 struct {
	Offset  uint32 // relative to the TIFF header
	Entries []IFDEntry
	Next    uint32
}

// ParseIFD0 reads the first directory of a little-endian TIFF blob.
func ParseIFD0(tiff []byte) (*IFD0, error) {
	if len(tiff) < tiffHdrSize {
		return nil, formatErr("tiff header", 0, ErrInvalidExifSegment)
	}
	if string(tiff[:len(tiffSig)]) != string(tiffSig) {
		return nil, formatErr("tiff header", 0, errors.New("little-endian TIFF signature expected"))
	}

	le := binary.LittleEndian
	off := le.Uint32(tiff[4:8])
	if off < tiffHdrSize || int64(off)+2 > int64(len(tiff)) {
		return nil, formatErr("ifd0 offset", 4, ErrInvalidExifSegment)
	}
	count := int64(le.Uint16(tiff[off:]))
	end := int64(off) + 2 + count*ifdEntrySize + 4
	if end > int64(len(tiff)) {
		return nil, formatErr("ifd0 entries", int64(off), ErrInvalidExifSegment)
	}

	ifd := &IFD0{Offset: off, Entries: make([]IFDEntry, 0, count)}
	pos := int64(off) + 2
	for i := int64(0); i < count; i++ {
		e := tiff[pos : pos+ifdEntrySize]
		ifd.Entries = append(ifd.Entries, IFDEntry{
			Tag:   le.Uint16(e[0:2]),
			Type:  le.Uint16(e[2:4]),
			Count: le.Uint32(e[4:8]),
			Value: le.Uint32(e[8:12]),
		})
		pos += ifdEntrySize
	}
	ifd.Next = le.Uint32(tiff[pos:])
	return ifd, nil
}

// MinimizeExif rebuilds IFD0 keeping only Make, Model, DateTime, ExposureTime, FNumber,
// ISOSpeed, FocalLength and Orientation, in their original order.
//
// The next-IFD pointer is zeroed, so thumbnails and sub-IFDs reachable only through
// dropped entries are lost. Kept values that do not fit in an entry are copied behind
// the new directory and their offsets rewritten. An entry of unknown type, or whose value
// lies outside the blob, is dropped. Bytes of the original blob past IFD0 are not preserved otherwise.
// Minimizing a minimized blob returns identical bytes.
func MinimizeExif(blob ExifBlob) (ExifBlob, error) {
	tiff := blob.TIFF()
	if len(blob) < 10 || tiff == nil {
		return nil, formatErr("minimize exif", 0, ErrInvalidExifSegment)
	}
	ifd, err := ParseIFD0(tiff)
	if err != nil {
		return nil, err
	}

	kept := make([]IFDEntry, 0, len(ifd.Entries))
	for _, e := range ifd.Entries {
		if !minimalTags[e.Tag] {
			continue
		}
		size, known := e.ValueSize()
		if !known || size > 4 && int64(e.Value)+size > int64(len(tiff)) {
			continue
		}
		kept = append(kept, e)
	}

	dataPos := int64(ifd.Offset) + 2 + int64(len(kept))*ifdEntrySize + 4
	var values []byte
	for i, e := range kept {
		size, _ := e.ValueSize()
		if size <= 4 {
			continue
		}
		if dataPos%2 == 1 {
			values = append(values, 0)
			dataPos++
		}
		if dataPos+size > math.MaxUint32 {
			return nil, formatErr("minimize exif", int64(e.Value), ErrExifTooLarge)
		}
		values = append(values, tiff[e.Value:int64(e.Value)+size]...)
		kept[i].Value = uint32(dataPos)
		dataPos += size
	}

	out := make([]byte, 0, len(exifHeader)+int(dataPos))
	out = append(out, exifHeader...)
	out = append(out, tiff[:ifd.Offset]...)
	out = appendIFD(out, kept)
	out = append(out, values...)
	return out, nil
}

func appendIFD(out []byte, entries []IFDEntry) []byte {
	le := binary.LittleEndian
	out = le.AppendUint16(out, uint16(len(entries)))
	for _, e := range entries {
		out = le.AppendUint16(out, e.Tag)
		out = le.AppendUint16(out, e.Type)
		out = le.AppendUint32(out, e.Count)
		out = le.AppendUint32(out, e.Value)
	}
	return le.AppendUint32(out, 0)
}
