package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/internal/types"
	"github.com/medlens/medlens/pkg/config"
	"github.com/medlens/medlens/pkg/explain"
	"github.com/medlens/medlens/pkg/extract"
	"github.com/medlens/medlens/pkg/index"
	"github.com/medlens/medlens/pkg/knowledge"
	"github.com/medlens/medlens/pkg/llm"
	"github.com/medlens/medlens/pkg/pipeline"
	"github.com/medlens/medlens/pkg/retry"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		ollamaURL  string
		noLLM      bool
		showText   bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&ollamaURL, "ollama-url", "", "Ollama server URL (overrides config)")
	flag.BoolVar(&noLLM, "no-llm", false, "Skip the language model and use built-in explanations")
	flag.BoolVar(&showText, "show-text", false, "Print the extracted report text")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: medlens [flags] <report-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		color.Red("failed to load config: %v", err)
		os.Exit(1)
	}
	if ollamaURL != "" {
		cfg.LLM.BaseURL = ollamaURL
	}

	if err := run(cfg, flag.Arg(0), noLLM, showText); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(cfg *config.Config, path string, noLLM, showText bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", path, err)
	}
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	// The CLI keeps stdout for results; diagnostics go to stderr.
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	ctx := context.Background()

	var model *llm.Client
	if !noLLM {
		model, err = llm.NewWithConfig(llm.ClientConfig{
			BaseURL:     cfg.LLM.BaseURL,
			ChatModel:   cfg.LLM.ChatModel,
			EmbedModel:  cfg.LLM.EmbedModel,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			RateLimit:   cfg.LLM.RateLimit,
			Retry: retry.Policy{
				MaxAttempts: cfg.LLM.MaxRetries,
				Delay:       cfg.LLM.RetryDelay,
			},
		})
		if err != nil {
			return err
		}
		if err := model.Ping(ctx); err != nil {
			color.Yellow("model service unavailable, falling back to built-in explanations")
			noLLM = true
		}
	}

	extractor := extract.NewWithConfig(extract.Config{
		TesseractCmd: cfg.Extract.TesseractCmd,
	})

	retriever := knowledge.NewRetriever(ctx, embedderOrNil(model, noLLM), index.NewMemory(),
		knowledge.Entries(), log)

	var explainer *explain.Explainer
	if noLLM {
		explainer = explain.New(nil, log)
	} else {
		explainer = explain.New(model, log)
	}

	var bar *progressbar.ProgressBar
	analyzer, err := pipeline.NewWithConfig(pipeline.Config{
		Extractor:     extractor,
		Retriever:     retriever,
		Explainer:     explainer,
		KnowledgeTopK: cfg.Retrieval.KnowledgeTopK,
		OnExplanation: func(done, total int) {
			if bar == nil {
				bar = getProgressBar(total, "Explaining findings...")
			}
			bar.Set(done)
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	color.Blue("Analyzing %s\n", filepath.Base(path))
	result, err := analyzer.Analyze(ctx, data, format)
	if err != nil {
		return fmt.Errorf("analysis failed: %v", err)
	}
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}

	printResult(result, showText)
	return nil
}

// embedderOrNil keeps a nil *Client from becoming a non-nil interface.
func embedderOrNil(model *llm.Client, noLLM bool) types.Embedder {
	if noLLM || model == nil {
		return nil
	}
	return model
}

func printResult(result *models.AnalysisResult, showText bool) {
	color.Green("✓ Report type: %s", result.ReportType)
	color.Green("✓ Findings: %d\n", result.TotalFindings)

	heading := color.New(color.FgCyan, color.Bold).PrintfFunc()
	for _, e := range result.Explanations {
		heading("\n%d. %s", e.Ordinal, e.DisplayName)
		if e.Value != "" {
			fmt.Printf("  (%s %s)", e.Value, e.Unit)
		} else if e.Descriptor != "" {
			fmt.Printf("  (%s)", e.Descriptor)
		}
		fmt.Printf("\n   %s\n", e.Text)
	}

	if result.TotalFindings == 0 {
		color.Yellow("\nNo recognized findings in this report.")
	}

	if showText {
		fmt.Printf("\n--- extracted text ---\n%s\n", result.RawText)
	}
}
