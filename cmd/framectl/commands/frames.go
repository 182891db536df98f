package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tauraamui/framerelay/pkg/database"
	"github.com/tauraamui/framerelay/pkg/database/models"
	"github.com/tauraamui/framerelay/pkg/database/repos"
	"github.com/tauraamui/xerror"
)

var (
	framesLimit  int
	framesDBPath string
	framesFormat string
)

func newFramesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "List frames recorded in the saved frame index",
		Example: `  # Show every indexed frame
  framectl frames

  # Show the first ten as JSON
  framectl frames --limit 10 --format json`,
		Args: cobra.NoArgs,
		RunE: runFrames,
	}

	cmd.Flags().IntVarP(&framesLimit, "limit", "n", 0, "maximum number of frames to list (0 lists all)")
	cmd.Flags().StringVar(&framesDBPath, "db", "", "path to the index database (defaults to the configured index)")
	cmd.Flags().StringVarP(&framesFormat, "format", "f", "table", "output format (table, json)")
	return cmd
}

func runFrames(cmd *cobra.Command, args []string) error {
	if framesFormat != "table" && framesFormat != "json" {
		return xerror.Errorf("unknown output format: %s", framesFormat)
	}

	path, err := resolveIndexPath(framesDBPath)
	if err != nil {
		return err
	}

	db, err := database.Open(path)
	if err != nil {
		return err
	}

	frames, err := (&repos.SavedFrameRepository{DB: db}).List(framesLimit)
	if err != nil {
		return err
	}

	if framesFormat == "json" {
		return writeFramesJSON(cmd.OutOrStdout(), frames)
	}
	return writeFramesTable(cmd.OutOrStdout(), frames)
}

func resolveIndexPath(flagValue string) (string, error) {
	if len(flagValue) > 0 {
		return flagValue, nil
	}

	return database.IndexPath(configuredIndexDB())
}

type frameEntry struct {
	Sequence int    `json:"sequence"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	Stamp    string `json:"stamp"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Encoding string `json:"encoding"`
}

func toEntry(frame models.SavedFrame) frameEntry {
	return frameEntry{
		Sequence: frame.Sequence,
		FileName: frame.FileName,
		Path:     frame.Path,
		Stamp:    frame.Stamp.Format("2006-01-02 15:04:05.000"),
		Width:    frame.Width,
		Height:   frame.Height,
		Encoding: frame.Encoding,
	}
}

func writeFramesJSON(w io.Writer, frames []models.SavedFrame) error {
	entries := make([]frameEntry, 0, len(frames))
	for _, frame := range frames {
		entries = append(entries, toEntry(frame))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeFramesTable(w io.Writer, frames []models.SavedFrame) error {
	if len(frames) == 0 {
		fmt.Fprintln(w, "No saved frames found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tFILE\tSIZE\tENCODING\tSTAMP")
	fmt.Fprintln(tw, "---\t----\t----\t--------\t-----")
	for _, frame := range frames {
		e := toEntry(frame)
		fmt.Fprintf(tw, "%d\t%s\t%dx%d\t%s\t%s\n", e.Sequence, e.FileName, e.Width, e.Height, e.Encoding, e.Stamp)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nTotal: %d frame(s)\n", len(frames))
	return nil
}
