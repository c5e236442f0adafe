package engine

import (
	"github.com/samber/do/v2"

	"github.com/bookmarkedapp/bookmarked-engine/catalog"
	"github.com/bookmarkedapp/bookmarked-engine/internal/config"
	"github.com/bookmarkedapp/bookmarked-engine/internal/logger"
	"github.com/bookmarkedapp/bookmarked-engine/library"
	"github.com/bookmarkedapp/bookmarked-engine/ratings"
	"github.com/bookmarkedapp/bookmarked-engine/recommend"
	"github.com/bookmarkedapp/bookmarked-engine/suggest"
)

// newContainer creates and configures the DI container with all providers.
func newContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, provideLogger)

	// Storage layer
	do.Provide(injector, provideLibraryStore)

	// External clients
	do.Provide(injector, provideCatalogClient)
	do.Provide(injector, provideRatingsClient)
	do.Provide(injector, provideRecommendClient)

	// Suggestion pipeline
	do.Provide(injector, provideResolver)
	do.Provide(injector, provideOrchestrator)

	return injector
}

// provideLogger provides the structured logger.
func provideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Bookmarked engine",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Library.DataPath,
	)

	return log, nil
}

// StoreHandle wraps the library store with shutdown capability.
type StoreHandle struct {
	*library.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// provideLibraryStore provides the saved-library store.
func provideLibraryStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := library.Open(cfg.Library.DataPath, log.Logger)
	if err != nil {
		return nil, err
	}
	log.Info("Library store opened", "path", cfg.Library.DataPath)

	return &StoreHandle{Store: store}, nil
}

// provideCatalogClient provides the book catalog client.
func provideCatalogClient(i do.Injector) (*catalog.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.New(catalog.Config{
		APIKey:  cfg.Catalog.APIKey,
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
	}, log.Logger), nil
}

// provideRatingsClient provides the community ratings client.
func provideRatingsClient(i do.Injector) (*ratings.Client, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return ratings.New(ratings.Config{}, log.Logger), nil
}

// provideRecommendClient provides the recommendation generator client.
func provideRecommendClient(i do.Injector) (*recommend.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := recommend.New(recommend.Config{
		APIKey: cfg.Generator.APIKey,
		Model:  cfg.Generator.Model,
	}, log.Logger)
	if !client.Configured() {
		log.Warn("Recommendation generator not configured; suggestion categories will stay empty")
	}

	return client, nil
}

// provideResolver provides the recommendation detail resolver.
func provideResolver(i do.Injector) (*suggest.Resolver, error) {
	log := do.MustInvoke[*logger.Logger](i)
	cat := do.MustInvoke[*catalog.Client](i)
	rt := do.MustInvoke[*ratings.Client](i)

	return suggest.NewResolver(cat, rt, log.Logger), nil
}

// provideOrchestrator provides the suggestion orchestrator.
func provideOrchestrator(i do.Injector) (*suggest.Orchestrator, error) {
	log := do.MustInvoke[*logger.Logger](i)
	rec := do.MustInvoke[*recommend.Client](i)
	res := do.MustInvoke[*suggest.Resolver](i)
	store := do.MustInvoke[*StoreHandle](i)

	return suggest.NewOrchestrator(rec, res, store.Store, log.Logger), nil
}
