package cr3

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// canonUUID is the uuid box identifier Canon writes into moov.
var canonUUID = []byte{0x85, 0xc0, 0xb6, 0x87, 0x82, 0x0f, 0x11, 0xe0, 0x81, 0x11, 0xf4, 0xce, 0x46, 0x2b, 0x6a, 0x48}

// makeJPEG returns a structurally valid JPEG stream of exactly size bytes (size >= 32).
func makeJPEG(size int) []byte {
	out := []byte{0xFF, 0xD8}
	out = append(out, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0, 1, 1, 0, 0, 1, 0, 1, 0, 0)
	out = append(out, 0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00)
	for i := 0; len(out) < size-2; i++ {
		out = append(out, byte(i%200))
	}
	return append(out, 0xFF, 0xD9)
}

type testTag struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiTag(tag uint16, s string) testTag {
	b := append([]byte(s), 0)
	return testTag{tag: tag, typ: 2, count: uint32(len(b)), data: b}
}

func shortTag(tag uint16, v uint16) testTag {
	return testTag{tag: tag, typ: 3, count: 1, data: binary.LittleEndian.AppendUint16(nil, v)}
}

func longTag(tag uint16, v uint32) testTag {
	return testTag{tag: tag, typ: 4, count: 1, data: binary.LittleEndian.AppendUint32(nil, v)}
}

// makeTIFF builds a little-endian TIFF blob with IFD0 at offset 8,
// values larger than 4 bytes stored after the directory.
func makeTIFF(next uint32, tags ...testTag) []byte {
	le := binary.LittleEndian
	out := append([]byte{}, tiffSig...)
	out = le.AppendUint32(out, 8)
	out = le.AppendUint16(out, uint16(len(tags)))

	dataPos := uint32(8 + 2 + len(tags)*ifdEntrySize + 4)
	var values []byte
	for _, tg := range tags {
		out = le.AppendUint16(out, tg.tag)
		out = le.AppendUint16(out, tg.typ)
		out = le.AppendUint32(out, tg.count)
		if len(tg.data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, tg.data)
			out = append(out, inline...)
			continue
		}
		out = le.AppendUint32(out, dataPos+uint32(len(values)))
		values = append(values, tg.data...)
	}
	out = le.AppendUint32(out, next)
	return append(out, values...)
}

func makeBox(tag string, payload ...[]byte) []byte {
	body := bytes.Join(payload, nil)
	out := binary.BigEndian.AppendUint32(nil, uint32(8+len(body)))
	out = append(out, tag...)
	return append(out, body...)
}

type cr3Fixture struct {
	data   []byte
	ranges []JPEGRange
}

func (f cr3Fixture) source() *bytes.Reader { return bytes.NewReader(f.data) }

// makeCR3 lays out ftyp, moov with a Canon uuid box carrying tiff, and mdat holding
// JPEG streams of the given sizes. A nil tiff leaves the uuid box out.
func makeCR3(t testing.TB, tiff []byte, jpegSizes ...int) cr3Fixture {
	t.Helper()

	ftyp := makeBox("ftyp", []byte("crx "), []byte{0, 0, 0, 1}, []byte("crx isom"))
	moov := makeBox("moov", makeBox("mvhd", make([]byte, 20)))
	if tiff != nil {
		moov = makeBox("moov",
			makeBox("uuid", canonUUID, makeBox("CNCV", []byte("CanonCR3_001/01.09.00/00.00.00")), makeBox("CMT1", tiff)),
			makeBox("mvhd", make([]byte, 20)),
		)
	}

	var (
		f       cr3Fixture
		streams [][]byte
	)
	pos := int64(len(ftyp) + len(moov) + 8)
	for _, size := range jpegSizes {
		streams = append(streams, makeJPEG(size))
		f.ranges = append(f.ranges, JPEGRange{Start: pos, End: pos + int64(size)})
		pos += int64(size)
	}
	f.data = bytes.Join([][]byte{ftyp, moov, makeBox("mdat", streams...)}, nil)
	return f
}
