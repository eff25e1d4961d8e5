package cr3

import "log"

// JPEGRange is a half-open byte range [Start, End) holding one embedded JPEG stream.
type JPEGRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Size returns the number of bytes in the range.
func (r JPEGRange) Size() int64 { return r.End - r.Start }

// ByteRange is a half-open byte range [Start, End) of a source.
type ByteRange struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int64 { return r.End - r.Start }

// BoxType is a four character ISO BMFF box tag.
type BoxType [4]byte

func (t BoxType) String() string { return string(t[:]) }

// Box describes one ISO BMFF box found by WalkBoxes or FindBox.
type Box struct {
	Type      BoxType
	Offset    int64 // absolute offset of the box header
	HeaderLen int64 // 8, or 16 with an extended 64-bit size
	Payload   ByteRange
}

// Size returns the declared box size, header included.
func (b Box) Size() int64 { return b.HeaderLen + b.Payload.Len() }

// ExifBlob is an APP1 EXIF payload: the "Exif\0\0" header followed by a TIFF blob.
type ExifBlob []byte

// TIFF returns the TIFF part of the blob, or nil if the header is missing.
func (b ExifBlob) TIFF() []byte {
	if len(b) < len(exifHeader) || string(b[:len(exifHeader)]) != string(exifHeader) {
		return nil
	}
	return b[len(exifHeader):]
}

// ExifState tells which EXIF, if any, was spliced into a preview.
type ExifState int

const (
	ExifNone ExifState = iota
	ExifFull
	ExifMinimized
)

func (s ExifState) String() string {
	switch s {
	case ExifFull:
		return "full"
	case ExifMinimized:
		return "minimized"
	default:
		return "no"
	}
}

// Preview is one extracted JPEG, ready to be written out.
type Preview struct {
	Index int // position in the scanned range list, 0-based
	Range JPEGRange
	JPEG  []byte
	Exif  ExifState
}

// Options controls scanning and extraction.
type Options struct {
	// ChunkSize is the read size used by ScanJPEGs, default 4096.
	ChunkSize int
	// Logger receives progress messages, nil disables logging.
	Logger *log.Logger
	// Selection picks the previews returned by Extract, default SelectLargest.
	Selection Selection
	// Minimize reduces the spliced EXIF to a small IFD0 tag set.
	Minimize bool
	// ReplaceExif removes EXIF already present in a preview before splicing.
	ReplaceExif bool
	// Ranges reuses a previous ScanJPEGs result instead of scanning again.
	Ranges []JPEGRange
}

func newOptions(opts []func(o *Options)) Options {
	o := Options{ChunkSize: defaultChunkSize}
	for _, applyOpt := range opts {
		applyOpt(&o)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	return o
}

func (o Options) logf(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}
