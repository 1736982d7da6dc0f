package main

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errIndexDisabled = errors.New("document index is disabled: set QDRANT_URL")

var indexCmd = &cobra.Command{
	Use:   "index <file> [file...]",
	Short: "Embed documents into the Qdrant search index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	if c.Index == nil {
		return errIndexDisabled
	}

	inputs, err := readNamedFiles(args)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	failed := 0
	for _, in := range inputs {
		file, err := c.Files.Save(ctx, in.Data, in.Filename, mime.TypeByExtension(filepath.Ext(in.Filename)))
		if err != nil {
			return fmt.Errorf("storing %s: %w", in.Filename, err)
		}

		chunks, err := c.Index.IndexFile(ctx, file, in.Data)
		if err != nil {
			c.Logger.Error("❌ Failed to index document", zap.String("filename", in.Filename), zap.Error(err))
			failed++
			continue
		}
		fmt.Fprintf(w, "%s  %s  (%d chunks)\n", file.ID, in.Filename, chunks)
	}

	fmt.Fprintf(w, "Indexed %d of %d document(s)\n", len(inputs)-failed, len(inputs))
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed to index", failed)
	}
	return nil
}
