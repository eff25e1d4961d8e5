package cr3

const (
	markerStart = 0xFF
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerAPP1  = 0xE1
)

const (
	defaultChunkSize = 4096

	// Previews below this size are skipped when a file carries at least
	// smallPreviewMinCount of them, the first one being a tiny thumbnail.
	smallPreviewSize     = 8 * 1024
	smallPreviewMinCount = 4
	maxPreviewsAll       = 3

	maxSegmentLength = 0xFFFF
)

var (
	exifHeader = []byte{'E', 'x', 'i', 'f', 0, 0}
	tiffSig    = []byte{'I', 'I', 0x2A, 0x00}
)

var (
	boxMoov = BoxType{'m', 'o', 'o', 'v'}
	boxUUID = BoxType{'u', 'u', 'i', 'd'}
)

// Tags kept by MinimizeExif.
const (
	TagMake         = 0x010F
	TagModel        = 0x0110
	TagOrientation  = 0x0112
	TagDateTime     = 0x0132
	TagExposureTime = 0x829A
	TagFNumber      = 0x829D
	TagISOSpeed     = 0x8827
	TagFocalLength  = 0x920A
)

var minimalTags = map[uint16]bool{
	TagMake:         true,
	TagModel:        true,
	TagDateTime:     true,
	TagExposureTime: true,
	TagFNumber:      true,
	TagISOSpeed:     true,
	TagFocalLength:  true,
	TagOrientation:  true,
}
