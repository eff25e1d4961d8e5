package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/paulmatencio/s3c/gLog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vearutop/cr3"
	"github.com/vearutop/cr3/internal/catalog"
	"github.com/vearutop/cr3/internal/sink"
)

var (
	extractOutput  string
	extractJPEG    string
	extractReplace bool

	extractCmd = &cobra.Command{
		Use:   "extract FILE...",
		Short: "Extract JPEG previews from CR3 files",
		Long: `Without -j the largest JPEG preview is written unaltered to <name>.jpg.
With -j N the N-th preview, or with -j all up to three previews, are written
to <name>_NNN.jpg with the EXIF of the CR3 file inserted (minimized with -m).

-o sets the output file for a single input: "-" writes to standard output,
s3://bucket/prefix uploads to S3. In -j all mode it is the base name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExtract,
	}
)

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file, - for stdout or s3://bucket/prefix")
	extractCmd.Flags().StringVarP(&extractJPEG, "jpeg", "j", "", "preview to extract: all or a 1-based number, default the largest")
	extractCmd.Flags().BoolP("minimize", "m", false, "insert minimized EXIF")
	extractCmd.Flags().BoolVar(&extractReplace, "replace-exif", false, "remove EXIF already present in the preview")
	extractCmd.Flags().Int("workers", 0, "number of files processed concurrently")
	extractCmd.Flags().String("cache", "", "directory of the scan result cache")

	_ = viper.BindPFlag("extract.minimize", extractCmd.Flags().Lookup("minimize"))
	_ = viper.BindPFlag("extract.workers", extractCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("cache.dir", extractCmd.Flags().Lookup("cache"))
}

type extractor struct {
	output  string
	sink    sink.Sink
	catalog *catalog.Catalog
	opts    cr3.Options
}

func runExtract(cmd *cobra.Command, args []string) error {
	sel, err := cr3.ParseSelection(extractJPEG)
	if err != nil {
		return err
	}
	if sink.IsStdout(extractOutput) && sel.All() {
		return errors.New("-j all cannot write to standard output")
	}
	if extractOutput != "" && !sink.IsS3(extractOutput) && len(args) > 1 {
		return errors.New("-o requires a single input file")
	}

	x := &extractor{output: extractOutput}
	baseOptions(&x.opts)
	x.opts.Selection = sel
	x.opts.Minimize = viper.GetBool("extract.minimize")
	x.opts.ReplaceExif = extractReplace

	if x.sink, err = newSink(extractOutput); err != nil {
		return err
	}
	defer x.sink.Close()

	if dir := viper.GetString("cache.dir"); dir != "" {
		if dir, err = homedir.Expand(dir); err != nil {
			return err
		}
		if x.catalog, err = catalog.Open(dir, gLog.Warning); err != nil {
			return err
		}
		defer x.catalog.Close()
	}

	workers := viper.GetInt("extract.workers")
	if workers < 1 {
		workers = 1
	}
	return x.run(commandContext(cmd), args, workers)
}

func (x *extractor) run(ctx context.Context, files []string, workers int) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
		jobs   = make(chan string)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if err := x.file(ctx, path); err != nil {
					gLog.Error.Printf("%s: %v", path, err)
					mu.Lock()
					result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, path := range files {
		select {
		case jobs <- path:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (x *extractor) file(ctx context.Context, path string) error {
	src, err := cr3.OpenFile(path)
	if err != nil {
		return err
	}
	defer src.Close()

	isCR3, err := cr3.IsCR3(io.NewSectionReader(src, 0, src.Size()))
	if err != nil {
		return err
	}
	if !isCR3 {
		gLog.Warning.Printf("%s: no CR3 file type box, scanning anyway", path)
	}

	o := x.opts
	if x.catalog != nil {
		if o.Ranges, err = x.cachedRanges(src, path, o); err != nil {
			return err
		}
	}

	previews, err := cr3.Extract(src, func(opt *cr3.Options) { *opt = o })
	if err != nil {
		return err
	}

	for _, p := range previews {
		name := x.outputName(path, p)
		if err := x.sink.Put(ctx, name, p.JPEG); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if o.Selection.Multi() {
			gLog.Info.Printf("Extracted JPEG %d to %s (size: %d bytes) with %s EXIF", p.Index+1, name, len(p.JPEG), p.Exif)
		} else {
			gLog.Info.Printf("Largest JPEG preview extracted to %s (size: %d bytes)", name, len(p.JPEG))
		}
	}
	return nil
}

// cachedRanges returns the scan result of src from the catalog, scanning and storing it on a miss.
func (x *extractor) cachedRanges(src *cr3.File, path string, o cr3.Options) ([]cr3.JPEGRange, error) {
	st, err := src.Stat()
	if err != nil {
		return nil, err
	}
	key := catalog.Key(path, st.Size(), st.ModTime())

	ranges, ok, err := x.catalog.Ranges(key)
	if err != nil {
		gLog.Warning.Printf("%s: reading scan cache: %v", path, err)
	} else if ok {
		gLog.Trace.Printf("%s: %d JPEG segments from scan cache", path, len(ranges))
		return ranges, nil
	}

	ranges, err = cr3.ScanJPEGs(io.NewSectionReader(src, 0, src.Size()), func(opt *cr3.Options) { *opt = o })
	if err != nil {
		return nil, err
	}
	if ranges == nil {
		ranges = []cr3.JPEGRange{}
	}
	if err := x.catalog.StoreRanges(key, ranges); err != nil {
		gLog.Warning.Printf("%s: writing scan cache: %v", path, err)
	}
	return ranges, nil
}

func (x *extractor) outputName(path string, p cr3.Preview) string {
	sel := x.opts.Selection
	switch {
	case x.output == "" || sink.IsS3(x.output):
		return cr3.OutputName(path, p.Index, sel.Multi())
	case sel.All():
		return cr3.OutputName(x.output, p.Index, true)
	default:
		return x.output
	}
}
