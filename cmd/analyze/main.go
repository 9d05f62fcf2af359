// Command analyze runs the extraction pipeline against a WhatsApp chat
// export on disk and prints the resulting reviews as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/profescore/review-extractor/internal/adapter/ai/gemini"
	"github.com/profescore/review-extractor/internal/adapter/observability"
	"github.com/profescore/review-extractor/internal/adapter/repo/postgres"
	"github.com/profescore/review-extractor/internal/config"
	"github.com/profescore/review-extractor/internal/service/keyring"
	"github.com/profescore/review-extractor/internal/transcript"
	"github.com/profescore/review-extractor/internal/usecase"
	"github.com/profescore/review-extractor/pkg/textx"
)

func main() {
	var (
		file = flag.String("file", "", "path to the exported WhatsApp chat (.txt)")
		save = flag.Bool("save", false, "persist surviving reviews to the database")
	)
	flag.Parse()
	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	raw, err := os.ReadFile(*file)
	if err != nil {
		slog.Error("read failed", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}
	text, err := textx.DecodeText(raw)
	if err != nil {
		slog.Error("decode failed", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}

	messages := transcript.Parse(textx.SanitizeText(text))
	slog.Info("transcript parsed", slog.Int("messages", len(messages)))

	keys, err := keyring.New(cfg.GeminiAPIKeys())
	if err != nil {
		slog.Error("no generation credentials configured", slog.Any("error", err))
		os.Exit(1)
	}
	rules, err := usecase.LoadRules(cfg.RulesPath)
	if err != nil {
		slog.Error("failed to load sanitizer rules", slog.Any("error", err))
		os.Exit(1)
	}

	gen := gemini.New(cfg, keys.Current())
	extractor := usecase.NewExtractor(gen, usecase.NewSanitizer(rules), cfg.MaxOutputTokens)
	malformedBO, serviceBO := cfg.GetBackoffConfig()
	orch := usecase.NewOrchestrator(extractor, keys, cfg.GeminiModels, cfg.MaxAttempts, malformedBO, serviceBO)
	analyzeSvc := usecase.NewAnalyzeService(orch, cfg.BatchSize, cfg.MinMessageLen)

	ctx := context.Background()
	reviews := analyzeSvc.Run(ctx, messages)
	slog.Info("analysis finished", slog.Int("reviews", len(reviews)))

	if *save {
		pool, err := postgres.NewPool(ctx, cfg.DBURL)
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		saveSvc := usecase.NewSaveService(postgres.NewCatalogRepo(pool), cfg.GeneralSubjectName, cfg.SystemAuthorID)
		res, err := saveSvc.Save(ctx, reviews)
		if err != nil {
			slog.Error("save failed", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("reviews saved",
			slog.Int("saved", len(res.Saved)),
			slog.Int("new_instructors", res.NewInstructors))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reviews); err != nil {
		slog.Error("encode failed", slog.Any("error", err))
		os.Exit(1)
	}
}
