package cr3

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocateExif(t *testing.T) {
	tiff := makeTIFF(0, asciiTag(TagMake, "Canon"), longTag(0x8769, 0x100))
	f := makeCR3(t, tiff, 300, 9000)

	blob, err := LocateExif(f.source())
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if !bytes.HasPrefix(blob, exifHeader) {
		t.Fatal("missing Exif header")
	}
	// The TIFF blob is the tail of the uuid payload.
	if !bytes.Equal(blob.TIFF(), tiff) {
		t.Fatalf("TIFF mismatch:\n%x\n%x", blob.TIFF(), tiff)
	}

	minimized, err := MinimizeExif(blob)
	if err != nil {
		t.Fatalf("minimize: %v", err)
	}
	ifd, err := ParseIFD0(minimized.TIFF())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ifd.Entries) != 1 || ifd.Entries[0].Tag != TagMake {
		t.Fatalf("unexpected entries %+v", ifd.Entries)
	}
}

func TestLocateExifAbsent(t *testing.T) {
	noMoov := bytes.Join([][]byte{makeBox("ftyp", []byte("crx ")), makeBox("mdat", makeJPEG(100))}, nil)
	noUUID := makeCR3(t, nil, 100).data
	noSig := bytes.Join([][]byte{makeBox("moov", makeBox("uuid", canonUUID, []byte("no tiff here")))}, nil)

	for name, data := range map[string][]byte{
		"no moov":      noMoov,
		"no uuid":      noUUID,
		"no signature": noSig,
		"empty":        {},
	} {
		blob, err := LocateExif(bytes.NewReader(data))
		if err != nil || blob != nil {
			t.Fatalf("%s: expected nil, got %x, %v", name, blob, err)
		}
	}
}

func TestLocateExifMalformed(t *testing.T) {
	moov := makeBox("moov", makeBox("uuid", canonUUID))
	moov[11] = 0xF0 // uuid size overruns moov

	_, err := LocateExif(bytes.NewReader(moov))
	if !errors.Is(err, ErrBoxOverrunsRange) {
		t.Fatalf("expected ErrBoxOverrunsRange, got %v", err)
	}
}

func TestLoadExif(t *testing.T) {
	tiff := makeTIFF(0, shortTag(TagOrientation, 1))
	want := newExifBlob(tiff)

	withExif, err := SpliceExif(makeJPEG(200), tiff)
	if err != nil {
		t.Fatalf("splice: %v", err)
	}

	for _, tc := range []struct {
		name string
		data []byte
		want ExifBlob
	}{
		{name: "cr3", data: makeCR3(t, tiff, 200).data, want: want},
		{name: "jpeg", data: withExif, want: want},
		{name: "jpeg without exif", data: makeJPEG(200)},
		{name: "exif blob", data: want, want: want},
		{name: "tiff", data: tiff, want: want},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LoadExif(bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("got %x, want %x", got, tc.want)
			}
		})
	}
}

func TestOpenFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "IMG_0001.CR3")
	f := makeCR3(t, makeTIFF(0, shortTag(TagOrientation, 1)), 100)
	if err := os.WriteFile(name, f.data, 0o600); err != nil {
		t.Fatal(err)
	}

	src, err := OpenFile(name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	if src.Size() != int64(len(f.data)) {
		t.Fatalf("size %d, want %d", src.Size(), len(f.data))
	}
	if blob, err := LocateExif(src); err != nil || blob == nil {
		t.Fatalf("locate: %x, %v", blob, err)
	}

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.CR3"))
	var ioErr *IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected *IOError wrapping ErrNotExist, got %v", err)
	}
}
