package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmatencio/s3c/gLog"
	"github.com/spf13/cobra"
	"github.com/vearutop/cr3"
	"github.com/vearutop/cr3/internal/sink"
)

var (
	exifMinimize bool
	exifReplace  bool
	exifOutput   string

	exifCmd = &cobra.Command{
		Use:   "exif SRC DST.jpg",
		Short: "Copy EXIF from a CR3 file into a JPEG",
		Long: `SRC is a CR3 file, a JPEG with EXIF or a bare TIFF/EXIF blob.
The EXIF is minimized unless --minimize=false and written into DST.jpg,
or into the file given by -o.`,
		Args: cobra.ExactArgs(2),
		RunE: runExif,
	}
)

func init() {
	rootCmd.AddCommand(exifCmd)

	exifCmd.Flags().BoolVarP(&exifMinimize, "minimize", "m", true, "keep only essential IFD0 tags")
	exifCmd.Flags().BoolVar(&exifReplace, "replace-exif", false, "remove EXIF already present in DST.jpg")
	exifCmd.Flags().StringVarP(&exifOutput, "output", "o", "", "output file, - for stdout or s3://bucket/prefix, default DST.jpg")
}

func runExif(cmd *cobra.Command, args []string) error {
	srcPath, dstPath := args[0], args[1]

	src, err := cr3.OpenFile(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	exif, err := cr3.LoadExif(src, baseOptions)
	if err != nil {
		return fmt.Errorf("extract EXIF from %s: %w", srcPath, err)
	}
	if exif == nil {
		return fmt.Errorf("no EXIF found in %s", srcPath)
	}
	gLog.Trace.Printf("Extracted EXIF segment (%d bytes)", len(exif))

	jpeg, err := os.ReadFile(filepath.Clean(dstPath))
	if err != nil {
		return err
	}
	out, err := cr3.CopyExif(jpeg, exif, exifMinimize, exifReplace)
	if err != nil {
		return fmt.Errorf("insert EXIF into %s: %w", dstPath, err)
	}

	name := dstPath
	if exifOutput != "" && !sink.IsS3(exifOutput) {
		name = exifOutput
	}
	s, err := newSink(exifOutput)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Put(commandContext(cmd), name, out); err != nil {
		return err
	}
	if exifOutput != "" {
		gLog.Info.Printf("Copied EXIF from %s into %s, written to %s", srcPath, dstPath, exifOutput)
		return nil
	}
	gLog.Info.Printf("Copied EXIF from %s into %s", srcPath, dstPath)
	return nil
}
