package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"

	"github.com/hashicorp/go-multierror"
)

// ReconcileReport maps "table.column" to the number of rows corrected.
type ReconcileReport map[string]int64

// Total is the number of drifted rows across all counters.
func (r ReconcileReport) Total() int64 {
	var n int64
	for _, v := range r {
		n += v
	}
	return n
}

func reactionSpec(table string, kind models.TargetKind, polarity models.Polarity) repository.RecountSpec {
	return repository.RecountSpec{
		Table:  table,
		Column: polarity.CounterColumn(),
		Source: fmt.Sprintf("SELECT COUNT(*) FROM reactions WHERE reactions.target_kind = ? AND reactions.target_id = %s.id AND reactions.polarity = ?", table),
		Args:   []interface{}{kind, polarity},
	}
}

func childSpec(table, column, childTable, fk string) repository.RecountSpec {
	return repository.RecountSpec{
		Table:  table,
		Column: column,
		Source: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s.%s = %s.id", childTable, childTable, fk, table),
	}
}

// recountSpecs lists every denormalized counter and the rows it is derived from.
func recountSpecs() []repository.RecountSpec {
	specs := []repository.RecountSpec{
		childSpec("posts", "comment_count", "comments", "post_id"),
		childSpec("comments", "reply_count", "replies", "comment_id"),
		childSpec("channels", "post_count", "posts", "channel_id"),
		childSpec("users", "post_count", "posts", "user_id"),
	}
	for _, kind := range levelOrder {
		table, _ := repository.TableFor(kind)
		specs = append(specs,
			reactionSpec(table, kind, models.PolarityLike),
			reactionSpec(table, kind, models.PolarityDislike),
		)
	}
	return specs
}

// ReconcileService recomputes denormalized counters from source rows.
type ReconcileService struct {
	store *repository.Store
}

func NewReconcileService(store *repository.Store) *ReconcileService {
	return &ReconcileService{store: store}
}

// Reconcile fixes every counter. A failing counter does not stop the
// others; all failures are returned together.
func (s *ReconcileService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	span, ctx := observability.NewSpan(ctx, "reconcile.counters")
	report := ReconcileReport{}
	var result *multierror.Error

	for _, spec := range recountSpecs() {
		key := spec.Table + "." + spec.Column
		drift, err := s.store.Counters.Recount(ctx, spec)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
			continue
		}
		report[key] = drift
		if drift > 0 {
			observability.CounterDrift.WithLabelValues(spec.Table, spec.Column).Add(float64(drift))
			middleware.Logger.WarnContext(ctx, "counter drift corrected",
				slog.String("counter", key),
				slog.Int64("rows", drift),
			)
		}
	}

	err := result.ErrorOrNil()
	span.End(err)
	return report, err
}

// Run reconciles every interval until ctx is cancelled.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.Reconcile(ctx)
			if err != nil {
				middleware.Logger.ErrorContext(ctx, "counter reconciliation failed", slog.String("error", err.Error()))
				continue
			}
			middleware.Logger.InfoContext(ctx, "counter reconciliation finished", slog.Int64("drifted", report.Total()))
		}
	}
}
