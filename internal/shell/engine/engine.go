// Package engine orchestrates the inventory operations over the store and
// the functional core: conversion-factor resolution and cascades, pallet
// saves with history, the breaker ledger with reconciliation, reporting and
// backup/restore.
package engine

import (
	"log/slog"
	"time"

	"github.com/Ccarlosa01/inventory-management-system/internal/shell/store"
)

// Engine wires the persisted collections to the core logic. It assumes one
// active operator session at a time; callers await each operation before
// issuing a dependent one (see SetConversionFactor for the one documented
// consistency window).
type Engine struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock. Tests use this to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over the given store.
func New(s store.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:  s,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
