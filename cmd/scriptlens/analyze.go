package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/scriptlens/internal/application/export"
	appws "github.com/bryanwahyu/scriptlens/internal/application/workspace"
	"github.com/bryanwahyu/scriptlens/internal/domain/analysis"
	"github.com/bryanwahyu/scriptlens/internal/logging"
)

var (
	exportPath   string
	sectionsFlag string
	providerFlag string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze one script file",
	Long: `Analyze a shell script and print the analysis as JSON.

With --export the selected sections are also written as an HTML report.
Sections: summary, interactiveQa, strengths, weaknesses, suggestions,
security, performance, portability, commandBreakdown, logicVisualization,
testSuite, translations, github.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&exportPath, "export", "o", "", "write an HTML report to this path")
	analyzeCmd.Flags().StringVar(&sectionsFlag, "sections", "", "comma separated sections to export (default all)")
	analyzeCmd.Flags().StringVar(&providerFlag, "provider", "", "override the AI provider (gemini, openai, heuristic)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sections, err := analysis.ParseSections(sectionsFlag)
	if err != nil {
		return err
	}
	if providerFlag != "" {
		_ = os.Setenv("AI_PROVIDER", providerFlag)
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	// log ke stderr supaya stdout tetap JSON bersih
	log, err := logging.New("warn", "console")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := newAIService(ctx, cfg, log)
	if err != nil {
		return err
	}

	ws := appws.New("cli", svc, appws.WithLogger(log))
	defer ws.Close()
	script, err := ws.AddScriptWith(filepath.Base(args[0]), string(content))
	if err != nil {
		return err
	}
	res, err := ws.Analyze(ctx, script.ID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}

	if strings.TrimSpace(exportPath) == "" {
		return nil
	}
	html, err := export.NewRenderer().RenderBytes(export.Document{
		ScriptName: script.Name,
		Script:     script.Content,
		Result:     res,
		Sections:   sections,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportPath, html, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", exportPath)
	return nil
}
