package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"alfredoptarigan/agentic-curie/internal/models"
	"alfredoptarigan/agentic-curie/internal/services"
)

var matchCmd = &cobra.Command{
	Use:   "match <resume> [resume...]",
	Short: "Score resumes against a job description and write a CSV report",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("jd", "", "job description file")
	matchCmd.Flags().String("jd-text", "", "job description text, takes precedence over --jd")
	matchCmd.Flags().StringP("out", "o", services.MatchOutputFilename, "where to write the CSV report")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jdPath, _ := cmd.Flags().GetString("jd")
	jdText, _ := cmd.Flags().GetString("jd-text")
	out, _ := cmd.Flags().GetString("out")

	if strings.TrimSpace(jdText) == "" && jdPath == "" {
		return errors.New("provide the job description with --jd or --jd-text")
	}

	c, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	jd := strings.TrimSpace(jdText)
	if jd == "" {
		data, err := os.ReadFile(jdPath)
		if err != nil {
			return fmt.Errorf("reading job description: %w", err)
		}
		jd = strings.TrimSpace(c.Extractor.ExtractText(filepath.Base(jdPath), data))
		if jd == "" {
			return fmt.Errorf("no readable text in %s", jdPath)
		}
	}

	resumes, err := readNamedFiles(args)
	if err != nil {
		return err
	}

	results, err := c.Matcher.Match(ctx, jd, resumes)
	if err != nil {
		return fmt.Errorf("resume matching failed: %w", err)
	}

	report, err := services.ResultsCSV(results)
	if err != nil {
		return err
	}
	if err := writeOutput(out, report); err != nil {
		return err
	}

	printScores(cmd.OutOrStdout(), results)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	return nil
}

func printScores(w io.Writer, results []models.MatchResult) {
	for _, r := range results {
		fmt.Fprintf(w, "%3d  %s\n", r.Score, r.Name)
	}
}
