package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/korjavin/gkentei/ai"
	"github.com/korjavin/gkentei/api"
	"github.com/korjavin/gkentei/bot"
	"github.com/korjavin/gkentei/cache"
)

var serveMigrate bool

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when configured, the Telegram bot",
	RunE: func(c *cobra.Command, _ []string) error {
		ctx, cancel := handleSignals(c.Context())
		defer cancel()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if serveMigrate {
		slog.Info("Running migrations")
		if err := db.Migrate(); err != nil {
			return err
		}
	}

	responses := cache.New[[]byte](cfg.Cache.Partitions())
	defer responses.Close()

	srv := api.New(db, responses, api.Options{AdminToken: cfg.Admin.Token})
	if cfg.Admin.Token == "" {
		slog.Warn("admin.token is not set; admin routes are unauthenticated")
	}

	var newBot func() (*bot.Bot, error)
	if cfg.Bot.Token != "" {
		newBot = func() (*bot.Bot, error) {
			var explainer bot.Explainer
			if cfg.Deepseek.APIKey != "" {
				explainer = ai.NewDeepseekClient(cfg.Deepseek)
			}
			b, err := bot.New(cfg.Bot.Token, cfg.Bot.Debug, db, explainer)
			if err != nil {
				return nil, err
			}
			b.OnAnswer = func() { responses.Invalidate(cache.User) }
			return b, nil
		}
	} else {
		slog.Info("bot.token is not set; Telegram bot disabled")
	}

	return runServices(ctx, srv, cfg.Server.Addr, newBot)
}

// runServices builds the bot, if any, before starting anything, then runs the
// HTTP server and bot until ctx is done or one of them fails.
func runServices(ctx context.Context, srv *api.Server, addr string, newBot func() (*bot.Bot, error)) error {
	var tg *bot.Bot
	if newBot != nil {
		var err error
		if tg, err = newBot(); err != nil {
			return fmt.Errorf("failed to create Telegram bot: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, addr)
	})
	if tg != nil {
		g.Go(func() error {
			return tg.Run(ctx)
		})
	}

	return g.Wait()
}
