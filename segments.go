package cr3

import (
	"bytes"
	"fmt"
	"io"

	jseg "github.com/garyhouston/jpegsegs"
)

func isJPEG(data []byte) bool {
	return len(data) >= jseg.HeaderSize && jseg.IsJPEGHeader(data)
}

// scanSegments calls fn with the marker and payload of each segment following SOI,
// up to and including SOS. The payload is only valid during the call.
func scanSegments(data []byte, fn func(marker jseg.Marker, payload []byte) bool) (err error) {
	defer recoverSegmentLength(&err)
	if !isJPEG(data) {
		return formatErr("jpeg header", 0, ErrNotAJPEG)
	}
	r := bytes.NewReader(data)
	scanner, err := jseg.NewScanner(r)
	if err != nil {
		return formatErr("jpeg header", 0, err)
	}
	for {
		marker, payload, err := scanner.Scan()
		if err != nil {
			return formatErr("jpeg segment", r.Size()-int64(r.Len()), err)
		}
		if !fn(marker, payload) || marker == jseg.SOS {
			return nil
		}
	}
}

// recoverSegmentLength turns the slice panic jpegsegs raises on a segment length
// field below 2 into a format error.
func recoverSegmentLength(err *error) {
	if r := recover(); r != nil {
		*err = formatErr("jpeg segment", 0, fmt.Errorf("invalid segment length: %v", r))
	}
}

func isExifSegment(marker jseg.Marker, payload []byte) bool {
	return marker == markerAPP1 && bytes.HasPrefix(payload, exifHeader)
}

// ExifFromJPEG returns a copy of the first EXIF APP1 payload of a JPEG, "Exif\0\0" included.
// It returns nil when the JPEG has no EXIF segment.
func ExifFromJPEG(jpegData []byte) ([]byte, error) {
	var exif []byte
	err := scanSegments(jpegData, func(marker jseg.Marker, payload []byte) bool {
		if isExifSegment(marker, payload) {
			exif = append([]byte(nil), payload...)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return exif, nil
}

// StripExif removes every EXIF APP1 segment found before the scan data, other segments
// and the entropy-coded data are kept.
func StripExif(jpegData []byte) (_ []byte, err error) {
	defer recoverSegmentLength(&err)
	if !isJPEG(jpegData) {
		return nil, formatErr("strip exif", 0, ErrNotAJPEG)
	}
	r := bytes.NewReader(jpegData)
	scanner, err := jseg.NewScanner(r)
	if err != nil {
		return nil, formatErr("jpeg header", 0, err)
	}

	var out bytes.Buffer
	out.Grow(len(jpegData))
	dumper, err := jseg.NewDumper(&out)
	if err != nil {
		return nil, err
	}
	for {
		marker, payload, err := scanner.Scan()
		if err != nil {
			return nil, formatErr("jpeg segment", r.Size()-int64(r.Len()), err)
		}
		if isExifSegment(marker, payload) {
			continue
		}
		if err := dumper.Dump(marker, payload); err != nil {
			return nil, err
		}
		if marker == jseg.SOS {
			break
		}
	}
	// Scan data and everything after it.
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// SpliceExif inserts exif as an APP1 segment right after the SOI marker of jpegData.
//
// The "Exif\0\0" header is prepended when exif lacks it. Segments already present in the
// JPEG are kept, so a JPEG that had EXIF ends up with two EXIF segments (see StripExif).
// EXIF that does not fit the 16-bit segment length fails with ErrExifTooLarge.
func SpliceExif(jpegData []byte, exif []byte) ([]byte, error) {
	if !isJPEG(jpegData) {
		return nil, formatErr("splice exif", 0, ErrNotAJPEG)
	}
	exif = ensureExifHeader(exif)

	var out bytes.Buffer
	out.Grow(len(jpegData) + 4 + len(exif))
	out.Write(jpegData[:jseg.HeaderSize])
	if err := writeAppSegment(&out, markerAPP1, exif); err != nil {
		return nil, err
	}
	out.Write(jpegData[2:])
	return out.Bytes(), nil
}

func ensureExifHeader(exif []byte) ExifBlob {
	if bytes.HasPrefix(exif, exifHeader) {
		return exif
	}
	return newExifBlob(exif)
}

func writeAppSegment(out io.Writer, marker jseg.Marker, payload []byte) error {
	if len(payload)+2 > maxSegmentLength {
		return formatErr(fmt.Sprintf("APP%d segment", marker-jseg.APP0), 0,
			fmt.Errorf("%w: %d bytes, max %d", ErrExifTooLarge, len(payload), maxSegmentLength-2))
	}
	if err := jseg.WriteMarker(out, marker); err != nil {
		return err
	}
	return jseg.WriteData(out, payload)
}
