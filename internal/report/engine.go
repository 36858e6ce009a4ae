// Package report produces the settlement report: per-person balances
// against the per-capita share, plus a category chart.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"racha/internal/cache"
	"racha/internal/core"
	"racha/internal/log"
)

// RecordReader supplies the full current record set.
type RecordReader interface {
	ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error)
}

// Renderer turns the category-by-person matrix into image bytes.
type Renderer interface {
	Render(matrix core.CategoryMatrix) ([]byte, error)
}

// Result is one produced settlement: the text report and the chart.
// Empty means there was nothing to settle, which is a normal outcome.
type Result struct {
	Empty bool
	Text  string
	Chart []byte
}

const msgNothingToSettle = "📭 No expenses recorded yet!"

const (
	cacheKey = "settlement"
	cacheTTL = 5 * time.Minute
)

// Engine reads records and derives the equal-split settlement. Producing
// a report never mutates stored data; clearing is a separate maintenance
// action. Results are cached until a write invalidates them or the TTL
// lapses.
type Engine struct {
	records  RecordReader
	renderer Renderer
	cache    *cache.LRU[Result]
	logger   *log.Logger
}

func New(records RecordReader, renderer Renderer, logger *log.Logger) *Engine {
	return &Engine{
		records:  records,
		renderer: renderer,
		cache:    cache.NewLRU[Result](1, cacheTTL),
		logger:   logger.WithComponent(log.ComponentReport),
	}
}

// Invalidate drops the cached report. Callers that mutate the record set
// must invalidate before the next Settle.
func (e *Engine) Invalidate() {
	e.cache.Delete(cacheKey)
}

// Settle aggregates all current records into a report. On an empty record
// set it returns an Empty result without touching the renderer.
func (e *Engine) Settle(ctx context.Context) (Result, error) {
	if res, ok := e.cache.Get(cacheKey); ok {
		return res, nil
	}

	records, err := e.records.ListExpenses(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list expenses: %w", err)
	}

	rep := core.NewSettlementReport(records)
	if rep.Empty() {
		e.logger.InfoContext(ctx, "Nothing to settle")
		res := Result{Empty: true, Text: msgNothingToSettle}
		e.cache.Set(cacheKey, res)
		return res, nil
	}

	chart, err := e.renderer.Render(rep.Categories)
	if err != nil {
		return Result{}, fmt.Errorf("render chart: %w", err)
	}

	e.logger.InfoContext(ctx, "Settlement produced",
		"total_cents", rep.Total.Cents,
		"participants", rep.ParticipantCount)

	res := Result{Text: formatReport(rep), Chart: chart}
	e.cache.Set(cacheKey, res)
	return res, nil
}

// formatReport renders the user-facing text. The sign convention is
// fixed: a positive balance owes into the pool, a negative one is owed
// from it.
func formatReport(rep core.SettlementReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Settlement Report\n")
	fmt.Fprintf(&b, "Total spent: %s\n", rep.Total)
	fmt.Fprintf(&b, "Per person (%d): %s\n\n", rep.ParticipantCount, rep.PerCapita)
	b.WriteString("💵 Balances:\n")
	for _, pb := range rep.Balances {
		if pb.Balance.Cents > 0 {
			fmt.Fprintf(&b, "%s: %s (owes)\n", pb.Person, pb.Balance)
		} else {
			fmt.Fprintf(&b, "%s: %s (is owed)\n", pb.Person, pb.Balance.Abs())
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
