package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vearutop/cr3"
)

var (
	scanJSON bool

	scanCmd = &cobra.Command{
		Use:   "scan FILE",
		Short: "List the JPEG streams embedded in a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print ranges as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	src, err := cr3.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	ranges, err := cr3.ScanJPEGs(io.NewSectionReader(src, 0, src.Size()), baseOptions)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if scanJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", " ")
		if ranges == nil {
			ranges = []cr3.JPEGRange{}
		}
		return enc.Encode(ranges)
	}
	for i, r := range ranges {
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", i+1, r.Start, r.End, r.Size())
	}
	return nil
}
