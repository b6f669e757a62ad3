package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

var infoChunks bool // list every index entry

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Print the header, frame count and chunk names of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fl.WithFile(args[0], fl.ReadOnly, func(f *fl.File) error {
			printInfo(cmd.OutOrStdout(), f, infoChunks)
			return nil
		}, cfg.fileOptions()...)
	},
}

func printInfo(w io.Writer, f *fl.File, chunks bool) {
	fmt.Fprintf(w, "file:        %s\n", f.Path())
	fmt.Fprintf(w, "size:        %s\n", humanize.Bytes(uint64(f.Size())))
	fmt.Fprintf(w, "format:      %d\n", f.FormatVersion())
	fmt.Fprintf(w, "schema:      %s %s\n", f.Schema(), f.SchemaVersion())
	fmt.Fprintf(w, "application: %s\n", f.Application())
	fmt.Fprintf(w, "frames:      %s\n", humanize.Comma(int64(f.FrameCount())))
	fmt.Fprintf(w, "chunks:      %s\n", humanize.Comma(int64(f.ChunkCount())))
	fmt.Fprintf(w, "names:       %s\n", strings.Join(f.Names(), ", "))
	if !chunks {
		return
	}
	for _, name := range f.Names() {
		for _, e := range f.EntriesFor(name) {
			fmt.Fprintf(w, "  frame %-6d %-28s %dx%d %-7v %-6v %s\n",
				e.Frame, name, e.N, e.M, e.Type, e.Codec, humanize.Bytes(uint64(e.StoredSize)))
		}
	}
}

func init() {
	infoCmd.Flags().BoolVar(&infoChunks, "chunks", false, "List every stored chunk")
	rootCmd.AddCommand(infoCmd)
}
