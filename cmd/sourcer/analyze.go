package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mohammad-safakhou/sourcer/internal/app"
	"github.com/mohammad-safakhou/sourcer/internal/helpers"
	"github.com/mohammad-safakhou/sourcer/models"
)

func analyzeCMD(cfgPath *string) *cobra.Command {
	var (
		file   string
		format string
	)
	analyze := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one script and print its sources",
		Long:  "Analyze reads a script from --file (or stdin), runs the pipeline once and prints the report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			script, err := readScript(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, logger, err := load(*cfgPath)
			if err != nil {
				return err
			}
			a, err := app.Build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Pipeline.Process(cmd.Context(), script)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}
	analyze.Flags().StringVarP(&file, "file", "f", "", "script file (default stdin)")
	analyze.Flags().StringVar(&format, "format", "json", "output format: json, yaml or text")
	return analyze
}

func checkFormat(format string) error {
	switch format {
	case "json", "yaml", "text":
		return nil
	}
	return fmt.Errorf("unknown format %q (want json, yaml or text)", format)
}

func readScript(path string, stdin io.Reader) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

func writeReport(w io.Writer, report *models.Report, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		fmt.Fprintf(w, "Run %s\n\n%s\n\n", report.RunID, strings.TrimSpace(report.MainTopics))
		if len(report.Results) == 0 {
			_, err := fmt.Fprintln(w, "No qualifying sources found.")
			return err
		}
		for _, line := range helpers.FormatCitations(report.Results) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
}
