package repository

import (
	"context"
	"fmt"

	"agora/internal/models"

	"gorm.io/gorm"
)

// Denormalized counter columns per table.
var counterColumns = map[string]map[string]bool{
	"users":    {"post_count": true},
	"channels": {"post_count": true},
	"posts":    {"comment_count": true, "like_count": true, "dislike_count": true},
	"comments": {"reply_count": true, "like_count": true, "dislike_count": true},
	"replies":  {"like_count": true, "dislike_count": true},
}

// TableFor maps a reaction target kind to its table.
func TableFor(kind models.TargetKind) (string, bool) {
	switch kind {
	case models.TargetPost:
		return "posts", true
	case models.TargetComment:
		return "comments", true
	case models.TargetReply:
		return "replies", true
	}
	return "", false
}

// Counters applies in-place arithmetic to denormalized counters.
type Counters struct {
	db *gorm.DB
}

// NewCounters returns a Counters bound to db.
func NewCounters(db *gorm.DB) *Counters {
	return &Counters{db: db}
}

func checkCounter(table, column string) error {
	if !counterColumns[table][column] {
		return fmt.Errorf("unknown counter %s.%s", table, column)
	}
	return nil
}

// Increment adds delta to table.column for row id in a single UPDATE, floored
// at zero. It reports whether the row exists.
func (c *Counters) Increment(ctx context.Context, table string, id uint, column string, delta int) (bool, error) {
	if err := checkCounter(table, column); err != nil {
		return false, models.NewInternalError(err)
	}
	res := c.db.WithContext(ctx).Table(table).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(
			fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", column), delta, delta,
		))
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Decrement subtracts per-row amounts, e.g. post_count per author after a
// channel cascade. Rows that no longer exist are skipped.
func (c *Counters) Decrement(ctx context.Context, table, column string, amounts map[uint]int) error {
	for id, n := range amounts {
		if n == 0 {
			continue
		}
		if _, err := c.Increment(ctx, table, id, column, -n); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot reads the like/dislike counters of a reaction target.
func (c *Counters) Snapshot(ctx context.Context, target models.Target) (likes, dislikes int, err error) {
	table, ok := TableFor(target.Kind)
	if !ok {
		return 0, 0, models.NewValidationError("Invalid target kind")
	}
	var row struct {
		LikeCount    int
		DislikeCount int
	}
	res := c.db.WithContext(ctx).Table(table).
		Select("like_count, dislike_count").
		Where("id = ?", target.ID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return 0, 0, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, 0, models.NewNotFoundError(string(target.Kind), target.ID)
	}
	return row.LikeCount, row.DislikeCount, nil
}

// RecountSpec describes how to derive one counter column from source rows.
// Source is a correlated subquery over the outer table's id.
type RecountSpec struct {
	Table  string
	Column string
	Source string
	Args   []interface{}
}

// Recount rewrites rows whose stored counter differs from the derived count
// and returns how many rows drifted.
func (c *Counters) Recount(ctx context.Context, spec RecountSpec) (int64, error) {
	if err := checkCounter(spec.Table, spec.Column); err != nil {
		return 0, models.NewInternalError(err)
	}
	args := append(append([]interface{}{}, spec.Args...), spec.Args...)
	sql := fmt.Sprintf("UPDATE %[1]s SET %[2]s = (%[3]s) WHERE %[2]s <> (%[3]s)", spec.Table, spec.Column, spec.Source)
	res := c.db.WithContext(ctx).Exec(sql, args...)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
