package cr3_test

import (
	"os"
	"path/filepath"

	"github.com/vearutop/cr3"
)

func ExampleExtract() {
	src, err := cr3.OpenFile(filepath.FromSlash("testdata/IMG_0001.CR3"))
	if err != nil {
		return
	}
	defer src.Close()

	previews, err := cr3.Extract(src, func(o *cr3.Options) {
		o.Selection = cr3.SelectAll()
		o.Minimize = true
	})
	if err != nil {
		return
	}
	for _, p := range previews {
		_ = os.WriteFile(cr3.OutputName(src.Name(), p.Index, true), p.JPEG, 0o644)
	}
}

func ExampleCopyExif() {
	src, err := cr3.OpenFile(filepath.FromSlash("testdata/IMG_0001.CR3"))
	if err != nil {
		return
	}
	defer src.Close()

	exif, err := cr3.LocateExif(src)
	if err != nil || exif == nil {
		return
	}
	jpeg, err := os.ReadFile(filepath.FromSlash("testdata/edited.jpg"))
	if err != nil {
		return
	}
	_, _ = cr3.CopyExif(jpeg, exif, true, true)
}
