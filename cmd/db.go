package cmd

import (
	"context"
	"time"

	"github.com/korjavin/gkentei/api"
	"github.com/korjavin/gkentei/bot"
	"github.com/korjavin/gkentei/database"
	"github.com/korjavin/gkentei/importer"
)

var (
	_ api.Store     = (*database.DB)(nil)
	_ bot.Store     = (*database.DB)(nil)
	_ importer.Sink = (*database.DB)(nil)
	_ enrichStore   = (*database.DB)(nil)
)

func openDB(ctx context.Context) (*database.DB, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return database.New(ctx, cfg.Database.URL)
}
