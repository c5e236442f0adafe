// Package engine wires the suggestion engine together for embedding
// applications: configuration, logging, the saved-library store, the external
// clients, and the orchestrator, composed through a DI container.
package engine

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookmarkedapp/bookmarked-engine/catalog"
	"github.com/bookmarkedapp/bookmarked-engine/domain"
	"github.com/bookmarkedapp/bookmarked-engine/internal/config"
	"github.com/bookmarkedapp/bookmarked-engine/internal/logger"
	"github.com/bookmarkedapp/bookmarked-engine/library"
	"github.com/bookmarkedapp/bookmarked-engine/suggest"
)

// Engine is the embedding application's handle on the suggestion system.
type Engine struct {
	injector *do.RootScope

	Config       *config.Config
	Logger       *logger.Logger
	Library      *library.Store
	Catalog      *catalog.Client
	Orchestrator *suggest.Orchestrator
}

// New builds an engine from the ambient configuration (environment, .env).
func New() (*Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig builds an engine from an explicit configuration.
func NewWithConfig(cfg *config.Config) (*Engine, error) {
	injector := newContainer(cfg)

	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return nil, err
	}
	storeHandle, err := do.Invoke[*StoreHandle](injector)
	if err != nil {
		return nil, err
	}
	cat, err := do.Invoke[*catalog.Client](injector)
	if err != nil {
		return nil, err
	}
	orch, err := do.Invoke[*suggest.Orchestrator](injector)
	if err != nil {
		return nil, err
	}

	return &Engine{
		injector:     injector,
		Config:       cfg,
		Logger:       log,
		Library:      storeHandle.Store,
		Catalog:      cat,
		Orchestrator: orch,
	}, nil
}

// Close shuts down every managed component, the library database included.
func (e *Engine) Close() error {
	return e.injector.Shutdown()
}

// Search runs a catalog search. Failures read as empty results; check
// Catalog.LastError for the cause.
func (e *Engine) Search(ctx context.Context, query string) []domain.Book {
	return e.Catalog.Search(ctx, query)
}

// Sync refreshes eligibility from the saved library and fills every eligible
// category that has no suggestions yet.
func (e *Engine) Sync(ctx context.Context) error {
	return e.Orchestrator.Sync(ctx)
}

// Suggestions returns the displayable books for one category.
func (e *Engine) Suggestions(cat domain.Category) []domain.Book {
	return e.Orchestrator.Suggestions(cat)
}

// RefreshCategory refetches one category, bypassing cached bulk results.
func (e *Engine) RefreshCategory(ctx context.Context, cat domain.Category) error {
	return e.Orchestrator.RefreshCategory(ctx, cat)
}

// RefreshAll discards all suggestion state and refetches everything.
func (e *Engine) RefreshAll(ctx context.Context) error {
	return e.Orchestrator.RefreshAll(ctx)
}
