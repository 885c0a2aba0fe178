// ABOUTME: Assembles the database, cache, identity, generator and logger into an engine
// ABOUTME: Owns every resource opened for a command and closes them in reverse order
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/harperreed/pagen/config"
	"github.com/harperreed/pagen/db"
	"github.com/harperreed/pagen/identity"
	"github.com/harperreed/pagen/insights"
	"github.com/harperreed/pagen/kvcache"
	"github.com/harperreed/pagen/llm"
	"github.com/harperreed/pagen/logging"
)

type app struct {
	cfg     *config.Config
	db      *sql.DB
	engine  *insights.Engine
	logger  *slog.Logger
	userID  uuid.UUID
	closers []func() error
}

// userIDFromConfig parses the configured user. An empty value selects the
// single local user, uuid.Nil.
func userIDFromConfig(cfg *config.Config) (uuid.UUID, error) {
	if cfg.UserID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user_id %q: %w", cfg.UserID, err)
	}
	return id, nil
}

func newApp(ctx context.Context, cfg *config.Config) (a *app, err error) {
	a = &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	a.userID, err = userIDFromConfig(cfg)
	if err != nil {
		return a, err
	}

	logger, cleanup := logging.Setup(cfg.Log.File, cfg.LogLevel())
	a.closers = append(a.closers, cleanup)
	async := logging.NewAsyncHandler(logger.Handler(), logging.DefaultQueueSize)
	a.closers = append(a.closers, async.Close)
	a.logger = slog.New(async)

	a.db, err = db.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return a, fmt.Errorf("failed to open database: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)

	cache, err := a.openCache()
	if err != nil {
		return a, err
	}

	generator, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return a, fmt.Errorf("failed to create text generator: %w", err)
	}

	a.engine = insights.NewEngine(insights.Deps{
		Contacts:  db.NewContactsRepository(a.db),
		History:   db.NewHistoryRepository(a.db),
		Identity:  identity.NewResolver(cfg.SelfEmails, a.accountSource(ctx)),
		Writer:    db.NewClassificationRepository(a.db),
		Cache:     cache,
		Generator: generator,
	},
		insights.WithLogger(a.logger),
		insights.WithLimits(insights.Limits{Events: cfg.History.Events, Messages: cfg.History.Messages}),
		insights.WithModel(cfg.LLM.Model),
		insights.WithMaxTags(cfg.LLM.MaxTags),
	)

	return a, nil
}

func (a *app) openCache() (insights.CacheStore, error) {
	if a.cfg.Cache.Backend != config.CacheBadger {
		return db.NewInsightCacheRepository(a.db), nil
	}
	store, err := kvcache.Open(a.cfg.Cache.BadgerDir)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// accountSource returns the Google profile lookup when enabled and a token is
// on disk. Without one the configured self emails are used alone.
func (a *app) accountSource(ctx context.Context) identity.AccountSource {
	if !a.cfg.GoogleIdentity {
		return nil
	}
	token, err := identity.LoadToken("")
	if err != nil {
		a.logger.Warn("google identity disabled", "error", err)
		return nil
	}
	profile, err := identity.NewGoogleProfile(ctx, token)
	if err != nil {
		a.logger.Warn("google identity disabled", "error", err)
		return nil
	}
	return profile
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
