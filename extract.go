package cr3

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

type selectMode int

const (
	selectLargest selectMode = iota
	selectIndex
	selectAll
)

// Selection picks the previews Extract returns.
type Selection struct {
	mode  selectMode
	index int
}

// SelectLargest picks the largest preview and leaves it unaltered.
func SelectLargest() Selection { return Selection{mode: selectLargest} }

// SelectIndex picks the n-th preview, 1-based, with EXIF spliced in.
func SelectIndex(n int) Selection { return Selection{mode: selectIndex, index: n} }

// SelectAll picks up to three previews with EXIF spliced in.
func SelectAll() Selection { return Selection{mode: selectAll} }

// ParseSelection parses "largest" (or empty), "all" or a 1-based preview number.
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(s) {
	case "", "largest":
		return SelectLargest(), nil
	case "all":
		return SelectAll(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return Selection{}, fmt.Errorf("expected 'all', 'largest' or a preview number, got %q", s)
	}
	return SelectIndex(n), nil
}

func (s Selection) String() string {
	switch s.mode {
	case selectIndex:
		return strconv.Itoa(s.index)
	case selectAll:
		return "all"
	default:
		return "largest"
	}
}

// Multi tells whether outputs get indexed file names.
func (s Selection) Multi() bool { return s.mode != selectLargest }

// All tells whether several previews may be returned.
func (s Selection) All() bool { return s.mode == selectAll }

// pick returns indexes into ranges, which must not be empty.
func (s Selection) pick(ranges []JPEGRange, o Options) ([]int, error) {
	skipFirst := len(ranges) >= smallPreviewMinCount && ranges[0].Size() < smallPreviewSize

	switch s.mode {
	case selectIndex:
		if skipFirst {
			if s.index < 1 || s.index > len(ranges)-1 {
				return nil, fmt.Errorf("preview %d not available after skipping the small first segment, %d valid previews found",
					s.index, len(ranges)-1)
			}
			o.logf("first JPEG segment size %d is below %d bytes, preview %d maps to segment %d",
				ranges[0].Size(), smallPreviewSize, s.index, s.index+1)
			return []int{s.index}, nil
		}
		if s.index < 1 || s.index > len(ranges) {
			return nil, fmt.Errorf("preview %d not available, %d previews found", s.index, len(ranges))
		}
		return []int{s.index - 1}, nil
	case selectAll:
		start := 0
		if skipFirst {
			o.logf("first JPEG segment size %d is below %d bytes, skipping it", ranges[0].Size(), smallPreviewSize)
			start = 1
		}
		n := len(ranges) - start
		if n > maxPreviewsAll {
			n = maxPreviewsAll
		}
		idx := make([]int, 0, n)
		for i := start; i < start+n; i++ {
			idx = append(idx, i)
		}
		return idx, nil
	default:
		largest := 0
		for i := 1; i < len(ranges); i++ {
			if ranges[i].Size() > ranges[largest].Size() {
				largest = i
			}
		}
		return []int{largest}, nil
	}
}

func withOptions(o Options) func(*Options) {
	return func(dst *Options) { *dst = o }
}

// Extract scans src for embedded JPEGs and returns the previews chosen by Options.Selection.
//
// The largest preview is returned unaltered. Indexed selections get the EXIF located in the
// container spliced in, minimized when Options.Minimize is set. A missing EXIF, or one that
// fails to minimize or splice, leaves the preview without EXIF rather than failing.
// Zero previews fail with ErrNotFound.
func Extract(src Source, opts ...func(o *Options)) ([]Preview, error) {
	o := newOptions(opts)

	ranges := o.Ranges
	if ranges == nil {
		var err error
		ranges, err = ScanJPEGs(io.NewSectionReader(src, 0, src.Size()), withOptions(o))
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: no JPEG previews", ErrNotFound)
	}

	idx, err := o.Selection.pick(ranges, o)
	if err != nil {
		return nil, err
	}

	var (
		exif  ExifBlob
		state ExifState
	)
	if o.Selection.Multi() {
		exif, state = containerExif(src, o)
	}

	previews := make([]Preview, 0, len(idx))
	for _, i := range idx {
		r := ranges[i]
		if r.Start < 0 || r.Start >= r.End || r.End > src.Size() {
			return nil, formatErr(fmt.Sprintf("preview %d", i+1), r.Start,
				fmt.Errorf("%w: [%d, %d) in %d bytes", ErrInvalidRange, r.Start, r.End, src.Size()))
		}
		data, err := readAt(src, r.Start, r.Size())
		if err != nil {
			return nil, fmt.Errorf("read preview %d: %w", i+1, err)
		}
		p := Preview{Index: i, Range: r, JPEG: data}
		if exif != nil {
			if out, err := spliceInto(data, exif, o); err != nil {
				o.logf("failed to insert EXIF into JPEG %d, using original JPEG: %v", i+1, err)
			} else {
				p.JPEG = out
				p.Exif = state
			}
		}
		previews = append(previews, p)
	}
	return previews, nil
}

func containerExif(src Source, o Options) (ExifBlob, ExifState) {
	exif, err := LocateExif(src, withOptions(o))
	if err != nil || exif == nil {
		o.logf("failed to extract EXIF, continuing without EXIF: %v", errOrNotFound(err))
		return nil, ExifNone
	}
	if !o.Minimize {
		return exif, ExifFull
	}
	minimized, err := MinimizeExif(exif)
	if err != nil {
		o.logf("failed to minimize EXIF, continuing without EXIF: %v", err)
		return nil, ExifNone
	}
	return minimized, ExifMinimized
}

func errOrNotFound(err error) error {
	if err == nil {
		return ErrNotFound
	}
	return err
}

func spliceInto(jpegData []byte, exif ExifBlob, o Options) ([]byte, error) {
	if o.ReplaceExif {
		stripped, err := StripExif(jpegData)
		if err != nil {
			return nil, err
		}
		jpegData = stripped
	}
	return SpliceExif(jpegData, exif)
}

// CopyExif splices exif into jpegData, replacing existing EXIF when replace is set.
func CopyExif(jpegData []byte, exif ExifBlob, minimize, replace bool) ([]byte, error) {
	if exif == nil {
		return nil, errors.New("no EXIF to copy")
	}
	if minimize {
		var err error
		if exif, err = MinimizeExif(exif); err != nil {
			return nil, fmt.Errorf("minimize: %w", err)
		}
	}
	return spliceInto(jpegData, exif, Options{ReplaceExif: replace})
}

// OutputName derives an output file name from a source path: "<base>.jpg", or
// "<base>_NNN.jpg" with the 1-based preview number when multi is set.
// The extension is kept when the name starts with its only dot or ends with a dot.
func OutputName(source string, index int, multi bool) string {
	base := source
	name := filepath.Base(source)
	if ext := filepath.Ext(name); ext != "" && ext != "." && ext != name {
		base = strings.TrimSuffix(source, ext)
	}
	if multi {
		return fmt.Sprintf("%s_%03d.jpg", base, index+1)
	}
	return base + ".jpg"
}
