package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"alfredoptarigan/agentic-curie/internal/services"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <file> <file> [file...]",
	Short: "Merge two or more documents into one summarized .docx",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringP("template", "t", "", "a .docx whose structure the output should follow")
	summarizeCmd.Flags().StringP("out", "o", services.MergeOutputFilename, "where to write the generated .docx")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	templatePath, _ := cmd.Flags().GetString("template")
	out, _ := cmd.Flags().GetString("out")

	c, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	inputs, err := readNamedFiles(args)
	if err != nil {
		return err
	}

	var instructions string
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		instructions, err = c.Extractor.TemplateInstructions(data)
		if err != nil {
			return fmt.Errorf("template must be a .docx file: %w", err)
		}
	}

	result, err := c.Summarizer.Summarize(ctx, inputs, instructions)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	if err := writeOutput(out, result.Document); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s from %d document(s)\n", out, len(result.Sources))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped (no readable text): %s\n", strings.Join(result.Skipped, ", "))
	}
	fmt.Fprintf(w, "Tokens: input=%d output=%d total=%d\n",
		result.Tokens.InputTokens, result.Tokens.OutputTokens, result.Tokens.TotalTokens)
	return nil
}
