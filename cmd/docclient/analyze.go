package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/legal-assistant/docclient/internal/export"
	"github.com/legal-assistant/docclient/internal/result"
	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/internal/view"
)

var (
	flagMode      string
	flagQAMode    string
	flagQuestion  string
	flagInput     string
	flagText      string
	flagExportDir string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis and print the result",
	Long: `Analyze loads a document, runs the selected analysis once and prints the
result cards. PDF inputs go through text extraction first.

Examples:
  docclient analyze --input contract.pdf
  docclient analyze --mode entities --input contract.txt
  docclient analyze --mode qa --qa-mode rag --question "Who is the buyer?" --input contract.pdf
  docclient analyze --mode combined --text "..." --export-dir ./out`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&flagMode, "mode", "summary", "Analysis mode: summary, entities, qa or combined")
	analyzeCmd.Flags().StringVar(&flagQAMode, "qa-mode", "extractive", "QA sub-mode: extractive, generative or rag")
	analyzeCmd.Flags().StringVar(&flagQuestion, "question", "", "Question for qa and combined modes")
	analyzeCmd.Flags().StringVar(&flagInput, "input", "", "Document path; .pdf is extracted, anything else is read as text, - reads stdin")
	analyzeCmd.Flags().StringVar(&flagText, "text", "", "Document text (instead of --input)")
	analyzeCmd.Flags().StringVar(&flagExportDir, "export-dir", "", "Write summary.txt and entities.json here when available")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	mode, err := session.ParseMode(flagMode)
	if err != nil {
		return err
	}
	qaMode, err := session.ParseQAMode(flagQAMode)
	if err != nil {
		return err
	}
	if flagInput != "" && flagText != "" {
		return errors.New("--input and --text are mutually exclusive")
	}

	s := session.New(newGateway(cfg), sessionOptions(cfg, "", nil))
	s.SetMode(mode)
	s.SetQAMode(qaMode)
	s.SetQuestion(flagQuestion)

	ctx := cmd.Context()

	switch {
	case flagText != "":
		s.SetText(flagText)
	case flagInput != "":
		if strings.EqualFold(filepath.Ext(flagInput), ".pdf") {
			data, err := os.ReadFile(flagInput)
			if err != nil {
				return fmt.Errorf("reading %s: %w", flagInput, err)
			}
			fmt.Fprintf(os.Stdout, "Extracting text from %s...\n", filepath.Base(flagInput))
			if _, err := s.Upload(ctx, filepath.Base(flagInput), data); err != nil {
				return err
			}
			if msg := s.Snapshot().ErrorMessage(); msg != "" {
				printView(view.Build(s.Snapshot()))
				return errors.New(msg)
			}
		} else {
			text, err := readText(flagInput)
			if err != nil {
				return err
			}
			s.SetText(text)
		}
	}

	fmt.Fprintf(os.Stdout, "%s\n", view.SubmitLabel(mode, qaMode, true))
	if _, err := s.Submit(ctx); err != nil {
		return err
	}

	snap := s.Snapshot()
	printView(view.Build(snap))
	if msg := snap.ErrorMessage(); msg != "" {
		return errors.New(msg)
	}

	if flagExportDir != "" {
		return writeExports(flagExportDir, snap)
	}
	return nil
}

func readText(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func writeExports(dir string, snap session.Snapshot) error {
	writer, err := export.NewWriter(dir)
	if err != nil {
		return fmt.Errorf("initializing export writer: %w", err)
	}

	for _, build := range []func(result.Result) (export.Artifact, error){export.Summary, export.Entities} {
		artifact, err := build(snap.Result())
		if errors.Is(err, export.ErrNotAvailable) {
			continue
		}
		if err != nil {
			return err
		}

		path, err := writer.Write(artifact)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	}
	return nil
}

func printView(v view.View) {
	heading := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgYellow)

	if v.Error != "" {
		color.Red("✗ %s", v.Error)
		return
	}
	if len(v.Cards) == 0 {
		fmt.Fprintln(os.Stdout, "No result.")
		return
	}

	for _, card := range v.Cards {
		heading.Printf("\n%s\n", card.Title)

		switch card.Kind {
		case view.CardSummary:
			fmt.Fprintln(os.Stdout, card.Text)
		case view.CardEntities:
			for _, e := range card.Entities {
				fmt.Fprintf(os.Stdout, "  %s ", e.Text)
				label.Printf("(%s)\n", e.Label)
			}
		case view.CardQA:
			fmt.Fprintf(os.Stdout, "Answer: %s\n", card.Answer)
			if card.Score != "" {
				fmt.Fprintf(os.Stdout, "Score: %s\n", card.Score)
			}
		}
	}
}
