package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vearutop/cr3"
)

var boxesCmd = &cobra.Command{
	Use:   "boxes FILE",
	Short: "List the top-level boxes of a CR3 file and the children of moov",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoxes,
}

func init() {
	rootCmd.AddCommand(boxesCmd)
}

func runBoxes(cmd *cobra.Command, args []string) error {
	src, err := cr3.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	return listBoxes(cmd.OutOrStdout(), src)
}

func listBoxes(w io.Writer, src cr3.Source) error {
	return cr3.WalkBoxes(src, cr3.ByteRange{End: src.Size()}, func(b cr3.Box) error {
		printBox(w, b, "")
		if b.Type.String() != "moov" {
			return nil
		}
		return cr3.WalkBoxes(src, b.Payload, func(child cr3.Box) error {
			printBox(w, child, "  ")
			return nil
		})
	})
}

func printBox(w io.Writer, b cr3.Box, indent string) {
	fmt.Fprintf(w, "%s%s\toffset %d\theader %d\tsize %d\n", indent, b.Type, b.Offset, b.HeaderLen, b.Size())
}
