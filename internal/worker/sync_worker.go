// Package worker drives the background consumer that mirrors ledger events
// into a spreadsheet.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// EventSource delivers ledger events to a handler until ctx is done.
type EventSource interface {
	ConsumeLedgerEvents(ctx context.Context, handler amqp.Handler) error
}

type Stats struct {
	Mirrored int64
	Rejected int64
	Failed   int64
}

// MirrorWorker copies each consumed event into a LedgerMirror.
type MirrorWorker struct {
	source EventSource
	mirror sheets.LedgerMirror
	logger *log.Logger

	mirrored atomic.Int64
	rejected atomic.Int64
	failed   atomic.Int64
}

func NewMirrorWorker(source EventSource, mirror sheets.LedgerMirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		source: source,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Run consumes until ctx is done. A done context is a clean stop.
func (w *MirrorWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Mirror worker started")
	err := w.source.ConsumeLedgerEvents(ctx, w.HandleEvent)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume ledger events: %w", err)
	}
	stats := w.Stats()
	w.logger.InfoContext(ctx, "Mirror worker stopped",
		"mirrored", stats.Mirrored, "rejected", stats.Rejected, "failed", stats.Failed)
	return nil
}

// HandleEvent mirrors one event. Events the mirror rejects as invalid are
// acknowledged and dropped; any other failure is returned for redelivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev core.LedgerEvent) error {
	fields := log.NewFields().WithEvent(ev).WithOwner(ev.OwnerID).WithOperation(log.OpMirror)

	if err := w.mirror.MirrorEvent(ctx, ev); err != nil {
		if core.KindOf(err) == core.KindValidation {
			w.rejected.Add(1)
			w.logger.WarnContext(ctx, "Dropping invalid ledger event", fields.WithError(err).ToSlice()...)
			return nil
		}
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Failed to mirror ledger event", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("mirror event %d: %w", ev.TransactionID, err)
	}

	w.mirrored.Add(1)
	w.logger.DebugContext(ctx, "Ledger event mirrored", fields.ToSlice()...)
	return nil
}

func (w *MirrorWorker) Stats() Stats {
	return Stats{
		Mirrored: w.mirrored.Load(),
		Rejected: w.rejected.Load(),
		Failed:   w.failed.Load(),
	}
}
