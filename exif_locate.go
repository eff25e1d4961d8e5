package cr3

import (
	"bytes"
	"fmt"
	"io"
)

// LocateExif finds the TIFF metadata stored in the uuid box of the moov box and returns it
// as an EXIF blob. It returns a nil blob and a nil error when moov, uuid or the TIFF
// signature is absent; malformed boxes fail with a *FormatError.
//
// The TIFF start is the first "II*\0" found anywhere in the uuid payload. A payload that
// carries those four bytes earlier by coincidence would be cut at the wrong place.
func LocateExif(src Source, opts ...func(o *Options)) (ExifBlob, error) {
	o := newOptions(opts)

	moov, err := FindBox(src, ByteRange{End: src.Size()}, boxMoov)
	if err != nil {
		return nil, fmt.Errorf("find moov: %w", err)
	}
	if moov == nil {
		o.logf("no moov box found")
		return nil, nil
	}
	moovPayload, err := ReadPayload(src, moov)
	if err != nil {
		return nil, fmt.Errorf("read moov: %w", err)
	}

	uuid, err := FindBox(bytes.NewReader(moovPayload), ByteRange{End: int64(len(moovPayload))}, boxUUID)
	if err != nil {
		return nil, fmt.Errorf("find uuid in moov: %w", err)
	}
	if uuid == nil {
		o.logf("no uuid box found in moov box")
		return nil, nil
	}
	payload := moovPayload[uuid.Payload.Start:uuid.Payload.End]

	pos := bytes.Index(payload, tiffSig)
	if pos < 0 {
		o.logf("no TIFF header found in uuid box")
		return nil, nil
	}
	o.logf("TIFF header at uuid payload offset %d, %d bytes", pos, len(payload)-pos)

	return newExifBlob(payload[pos:]), nil
}

func newExifBlob(tiff []byte) ExifBlob {
	blob := make([]byte, 0, len(exifHeader)+len(tiff))
	blob = append(blob, exifHeader...)
	return append(blob, tiff...)
}

// LoadExif reads EXIF from a CR3 container, a JPEG with an EXIF APP1 segment,
// an EXIF blob or a bare little-endian TIFF blob. Nil is returned when the
// source carries no EXIF.
func LoadExif(src Source, opts ...func(o *Options)) (ExifBlob, error) {
	head := make([]byte, 8)
	n, err := src.ReadAt(head, 0)
	if n < len(head) && err != nil && err != io.EOF {
		return nil, &IOError{Op: "read header", Err: err}
	}
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, []byte{markerStart, markerSOI}):
		data, err := readAt(src, 0, src.Size())
		if err != nil {
			return nil, err
		}
		exif, err := ExifFromJPEG(data)
		if err != nil || exif == nil {
			return nil, err
		}
		return ExifBlob(exif), nil
	case bytes.HasPrefix(head, exifHeader), bytes.HasPrefix(head, tiffSig):
		data, err := readAt(src, 0, src.Size())
		if err != nil {
			return nil, err
		}
		return ensureExifHeader(data), nil
	default:
		return LocateExif(src, opts...)
	}
}
