// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"agora/internal/models"

	"gorm.io/gorm"
)

// batchSize bounds the number of bind parameters in a single IN (...) clause.
const batchSize = 500

// Store bundles every repository over one connection. Inside Transaction the
// same repositories are rebound to the transaction handle.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Channels      ChannelRepository
	Posts         PostRepository
	Comments      CommentRepository
	Replies       ReplyRepository
	Reactions     ReactionRepository
	Counters      *Counters
	AdminLogs     AdminLogRepository
	RefreshTokens RefreshTokenRepository
}

// NewStore builds a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Channels:      NewChannelRepository(db),
		Posts:         NewPostRepository(db),
		Comments:      NewCommentRepository(db),
		Replies:       NewReplyRepository(db),
		Reactions:     NewReactionRepository(db),
		Counters:      NewCounters(db),
		AdminLogs:     NewAdminLogRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
	}
}

// DB exposes the underlying handle for health checks and reconciliation.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a Store bound to a single database transaction.
// Any error returned by fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func wrapFindErr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

func batches(ids []uint, fn func(batch []uint) error) error {
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// pluckIDs returns the ids of model rows whose column is in parents.
func pluckIDs(ctx context.Context, db *gorm.DB, model interface{}, column string, parents []uint) ([]uint, error) {
	var out []uint
	err := batches(parents, func(batch []uint) error {
		var ids []uint
		if err := db.WithContext(ctx).Model(model).Where(column+" IN ?", batch).Order("id").Pluck("id", &ids).Error; err != nil {
			return err
		}
		out = append(out, ids...)
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// deleteIDs removes rows by primary key. Absent ids are ignored.
func deleteIDs(ctx context.Context, db *gorm.DB, model interface{}, ids []uint) (int64, error) {
	var total int64
	err := batches(ids, func(batch []uint) error {
		res := db.WithContext(ctx).Where("id IN ?", batch).Delete(model)
		total += res.RowsAffected
		return res.Error
	})
	if err != nil {
		return total, models.NewInternalError(err)
	}
	return total, nil
}

type groupRow struct {
	GroupKey uint
	N        int
}

// groupCount counts rows with id in ids, grouped by column.
func groupCount(ctx context.Context, db *gorm.DB, model interface{}, column string, ids []uint) (map[uint]int, error) {
	out := make(map[uint]int)
	err := batches(ids, func(batch []uint) error {
		var rows []groupRow
		if err := db.WithContext(ctx).Model(model).
			Select(column+" AS group_key, COUNT(*) AS n").
			Where("id IN ?", batch).
			Group(column).
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			out[r.GroupKey] += r.N
		}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
