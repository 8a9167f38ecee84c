package repository

import (
	"context"
	"errors"
	"time"

	"affiliate/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoTransaction guards enqueues that would commit apart from the state change they describe
var ErrNoTransaction = errors.New("outbox enqueue requires a transaction")

type OutboxRepository interface {
	Enqueue(ctx context.Context, jobs ...model.OutboxJob) error
	Lease(ctx context.Context, owner string, now time.Time, ttl time.Duration, limit int) ([]model.OutboxJob, error)
	MarkDone(ctx context.Context, id, owner string, now time.Time) error
	MarkRetry(ctx context.Context, id, owner string, attempts int, next time.Time, lastErr string) error
	MarkDead(ctx context.Context, id, owner string, attempts int, lastErr string) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, jobs ...model.OutboxJob) error {
	if len(jobs) == 0 {
		return nil
	}
	if !InTx(ctx) {
		return ErrNoTransaction
	}
	return GetDB(ctx, r.db).Create(&jobs).Error
}

// Lease claims due jobs and jobs whose lease expired. Rows locked by another worker are skipped.
func (r *outboxRepository) Lease(ctx context.Context, owner string, now time.Time, ttl time.Duration, limit int) ([]model.OutboxJob, error) {
	var jobs []model.OutboxJob
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(status = ? AND next_attempt_at <= ?) OR (status = ? AND lease_expires_at <= ?)",
				model.OutboxPending, now, model.OutboxLeased, now).
			Order("next_attempt_at").
			Limit(limit).
			Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}

		ids := make([]string, 0, len(jobs))
		for _, j := range jobs {
			ids = append(ids, j.ID)
		}
		// A takeover of an expired lease counts the abandoned run as an attempt
		var expired []string
		for _, j := range jobs {
			if j.Status == model.OutboxLeased {
				expired = append(expired, j.ID)
			}
		}
		if len(expired) > 0 {
			if err := tx.Model(&model.OutboxJob{}).Where("id IN ?", expired).
				Update("attempt_count", gorm.Expr("attempt_count + 1")).Error; err != nil {
				return err
			}
		}

		expires := now.Add(ttl)
		if err := tx.Model(&model.OutboxJob{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":           model.OutboxLeased,
			"lease_owner":      owner,
			"lease_expires_at": expires,
		}).Error; err != nil {
			return err
		}
		for i := range jobs {
			if jobs[i].Status == model.OutboxLeased {
				jobs[i].AttemptCount++
			}
			jobs[i].Status = model.OutboxLeased
			jobs[i].LeaseOwner = owner
			jobs[i].LeaseExpiresAt = &expires
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id, owner string, now time.Time) error {
	return r.settle(ctx, id, owner, map[string]interface{}{
		"status":       model.OutboxDone,
		"processed_at": now,
	})
}

func (r *outboxRepository) MarkRetry(ctx context.Context, id, owner string, attempts int, next time.Time, lastErr string) error {
	return r.settle(ctx, id, owner, map[string]interface{}{
		"status":          model.OutboxPending,
		"attempt_count":   attempts,
		"next_attempt_at": next,
		"last_error":      lastErr,
	})
}

func (r *outboxRepository) MarkDead(ctx context.Context, id, owner string, attempts int, lastErr string) error {
	return r.settle(ctx, id, owner, map[string]interface{}{
		"status":        model.OutboxDead,
		"attempt_count": attempts,
		"last_error":    lastErr,
	})
}

// settle releases the lease. A lease taken over by another worker yields ErrConflict.
func (r *outboxRepository) settle(ctx context.Context, id, owner string, fields map[string]interface{}) error {
	fields["lease_owner"] = ""
	fields["lease_expires_at"] = nil
	res := GetDB(ctx, r.db).Model(&model.OutboxJob{}).
		Where("id = ? AND status = ? AND lease_owner = ?", id, model.OutboxLeased, owner).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
