// Package pipeline drives work items through the generation and translation
// state machine, one item at a time. Both model endpoints and the store are
// single-capacity resources, so an item fully finishes (success or terminal
// failure) before the next one starts.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/arjunvn/tracelate/internal/source"
	"github.com/arjunvn/tracelate/internal/store"
)

// Gateway is the model surface the controller drives. Retries are the
// gateway's concern; the controller only sees terminal outcomes.
type Gateway interface {
	Generate(ctx context.Context, title string, content string) (string, error)
	Translate(ctx context.Context, traceText string) (string, error)
}

// Store is the persistence surface the controller writes through. The
// controller is the only writer of status transitions.
type Store interface {
	InsertGenerated(ctx context.Context, title, content, trace string) (int64, error)
	MarkTranslated(ctx context.Context, id int64, translated string) error
	MarkFailed(ctx context.Context, id int64) error
	ListByStatus(ctx context.Context, status store.Status) ([]*store.Record, error)
}

// Summary reports per-run outcome totals. Item failures are recorded here and
// in the store, never surfaced as run errors.
type Summary struct {
	Processed           int
	Generated           int
	Translated          int
	GenerationFailures  int
	TranslationFailures int
	StoreFailures       int
}

// Controller owns the sequential processing of work items.
type Controller struct {
	gateway Gateway
	store   Store
	logger  *zap.Logger
}

// NewController wires the gateway and store together. A nil logger falls back
// to a no-op logger.
func NewController(gateway Gateway, traceStore Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{gateway: gateway, store: traceStore, logger: logger}
}

// isItemLevelStoreError reports whether a store failure is confined to one
// record. Anything else is treated as store unavailability, which aborts the
// run.
func isItemLevelStoreError(err error) bool {
	return errors.Is(err, store.ErrConstraint) || errors.Is(err, store.ErrNotFound)
}

// Run processes every work item in source order: generate a trace, persist
// it, translate it, record the outcome. A generation failure skips the item
// without persisting anything; a translation failure leaves the stored trace
// with a failed status. After the items are exhausted, a fallback sweep
// translates any record still pending.
func (c *Controller) Run(ctx context.Context, items []source.WorkItem) (Summary, error) {
	var summary Summary

	for index, item := range items {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}

		itemLogger := c.logger.With(
			zap.Int("item", index+1),
			zap.Int("total", len(items)),
			zap.String("title", item.Title),
		)
		itemLogger.Info("processing work item", zap.Int("content_length", len(item.Content)))
		summary.Processed++

		trace, generateErr := c.gateway.Generate(ctx, item.Title, item.Content)
		if generateErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, ctxErr
			}
			summary.GenerationFailures++
			itemLogger.Error("trace generation failed, skipping item", zap.Error(generateErr))
			continue
		}
		summary.Generated++

		id, insertErr := c.store.InsertGenerated(ctx, item.Title, item.Content, trace)
		if insertErr != nil {
			if !isItemLevelStoreError(insertErr) {
				return summary, fmt.Errorf("insert generated trace for %q: %w", item.Title, insertErr)
			}
			summary.StoreFailures++
			itemLogger.Error("persisting generated trace failed, skipping item", zap.Error(insertErr))
			continue
		}
		itemLogger.Info("trace persisted", zap.Int64("id", id), zap.Int("trace_length", len(trace)))

		if translateErr := c.translateRecord(ctx, id, trace, itemLogger, &summary); translateErr != nil {
			return summary, translateErr
		}
	}

	if sweepErr := c.sweepPending(ctx, &summary); sweepErr != nil {
		return summary, sweepErr
	}

	c.logger.Info("run complete",
		zap.Int("processed", summary.Processed),
		zap.Int("generated", summary.Generated),
		zap.Int("translated", summary.Translated),
		zap.Int("generation_failures", summary.GenerationFailures),
		zap.Int("translation_failures", summary.TranslationFailures))
	return summary, nil
}

// CatchUp performs only the translation step for records still awaiting it.
// Failed records are re-attempted only when includeFailed is set; the store
// never re-queues them on its own.
func (c *Controller) CatchUp(ctx context.Context, includeFailed bool) (Summary, error) {
	var summary Summary

	records, listErr := c.store.ListByStatus(ctx, store.StatusPending)
	if listErr != nil {
		return summary, fmt.Errorf("list pending records: %w", listErr)
	}
	if includeFailed {
		failedRecords, failedErr := c.store.ListByStatus(ctx, store.StatusFailed)
		if failedErr != nil {
			return summary, fmt.Errorf("list failed records: %w", failedErr)
		}
		records = append(records, failedRecords...)
	}

	c.logger.Info("catch-up translation started",
		zap.Int("records", len(records)),
		zap.Bool("include_failed", includeFailed))

	for _, record := range records {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}

		recordLogger := c.logger.With(
			zap.Int64("id", record.ID),
			zap.String("title", record.Title),
		)
		summary.Processed++

		if translateErr := c.translateRecord(ctx, record.ID, record.TraceSourceWithThink, recordLogger, &summary); translateErr != nil {
			return summary, translateErr
		}
	}

	c.logger.Info("catch-up translation complete",
		zap.Int("processed", summary.Processed),
		zap.Int("translated", summary.Translated),
		zap.Int("translation_failures", summary.TranslationFailures))
	return summary, nil
}

// translateRecord runs the translate step for one persisted trace and commits
// the resulting status transition. Terminal model failures are absorbed here;
// only cancellation and store unavailability propagate.
func (c *Controller) translateRecord(ctx context.Context, id int64, trace string, itemLogger *zap.Logger, summary *Summary) error {
	translated, translateErr := c.gateway.Translate(ctx, trace)
	if translateErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		summary.TranslationFailures++
		itemLogger.Error("translation failed, marking record failed", zap.Error(translateErr))

		if markErr := c.store.MarkFailed(ctx, id); markErr != nil {
			if !isItemLevelStoreError(markErr) {
				return fmt.Errorf("mark record %d failed: %w", id, markErr)
			}
			summary.StoreFailures++
			itemLogger.Error("recording translation failure failed", zap.Error(markErr))
		}
		return nil
	}

	if markErr := c.store.MarkTranslated(ctx, id, translated); markErr != nil {
		if !isItemLevelStoreError(markErr) {
			return fmt.Errorf("mark record %d translated: %w", id, markErr)
		}
		summary.StoreFailures++
		itemLogger.Error("recording translation failed", zap.Error(markErr))
		return nil
	}

	summary.Translated++
	itemLogger.Info("translation persisted", zap.Int("translated_length", len(translated)))
	return nil
}

// sweepPending finishes a full run: anything still pending, including
// leftovers from an earlier interrupted run, gets a translation attempt.
func (c *Controller) sweepPending(ctx context.Context, summary *Summary) error {
	pending, listErr := c.store.ListByStatus(ctx, store.StatusPending)
	if listErr != nil {
		return fmt.Errorf("list pending records: %w", listErr)
	}
	if len(pending) == 0 {
		return nil
	}

	c.logger.Info("translating remaining pending records", zap.Int("records", len(pending)))
	for _, record := range pending {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		recordLogger := c.logger.With(zap.Int64("id", record.ID), zap.String("title", record.Title))
		if translateErr := c.translateRecord(ctx, record.ID, record.TraceSourceWithThink, recordLogger, summary); translateErr != nil {
			return translateErr
		}
	}
	return nil
}
