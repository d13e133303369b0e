package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/korjavin/gkentei/ai"
	"github.com/korjavin/gkentei/models"
)

var (
	enrichLimit       int
	enrichConcurrency int
)

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 50, "maximum number of questions to enrich")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 2, "parallel API requests")
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate explanations for questions that have none",
	RunE: func(c *cobra.Command, _ []string) error {
		if cfg.Deepseek.APIKey == "" {
			return ai.ErrNotConfigured
		}
		ctx, cancel := handleSignals(c.Context())
		defer cancel()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		_, err = enrich(ctx, db, ai.NewDeepseekClient(cfg.Deepseek), enrichLimit, enrichConcurrency)
		return err
	},
}

type enrichStore interface {
	QuestionsWithoutExplanation(ctx context.Context, limit int) ([]models.Question, error)
	SetExplanation(ctx context.Context, id int64, explanation string) error
	CacheExplanation(ctx context.Context, questionID int64, body string) error
}

type explainer interface {
	ExplainQuestion(ctx context.Context, q models.Question) (string, error)
}

// enrich fills in missing explanations. A failed question is logged and
// skipped; the returned error reports how many failed.
func enrich(ctx context.Context, store enrichStore, ex explainer, limit, concurrency int) (int, error) {
	questions, err := store.QuestionsWithoutExplanation(ctx, limit)
	if err != nil {
		return 0, err
	}
	slog.Info("Enriching questions", slog.Int("count", len(questions)))

	var done, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, q := range questions {
		g.Go(func() error {
			if err := enrichOne(gctx, store, ex, q); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				slog.Error("Failed to enrich question", slog.Int64("question_id", q.ID), slog.Any("error", err))
				failed.Add(1)
				return nil
			}
			done.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(done.Load()), err
	}

	slog.Info("Enrichment finished", slog.Int("enriched", int(done.Load())), slog.Int("failed", int(failed.Load())))
	if n := failed.Load(); n > 0 {
		return int(done.Load()), fmt.Errorf("%d of %d questions failed", n, len(questions))
	}
	return int(done.Load()), nil
}

func enrichOne(ctx context.Context, store enrichStore, ex explainer, q models.Question) error {
	body, err := ex.ExplainQuestion(ctx, q)
	if err != nil {
		return err
	}
	if err := store.SetExplanation(ctx, q.ID, body); err != nil {
		return err
	}
	return store.CacheExplanation(ctx, q.ID, body)
}
