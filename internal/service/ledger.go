package service

import (
	"context"
	"time"

	"github.com/knownet/post-service/internal/model"
	"github.com/knownet/post-service/internal/repository"
	"go.uber.org/zap"
)

// ledger applies per-user counter changes fire-and-forget. A failed update is
// logged and dropped; the reconciler corrects drift later.
type ledger struct {
	logger  *zap.Logger
	users   repository.User
	bg      *background
	timeout time.Duration
}

func newLedger(logger *zap.Logger, users repository.User, bg *background, timeout time.Duration) *ledger {
	return &ledger{
		logger:  logger,
		users:   users,
		bg:      bg,
		timeout: timeout,
	}
}

func (l *ledger) apply(userID string, delta model.CounterDelta) {
	if userID == "" || delta.IsZero() {
		return
	}

	l.bg.Go("counter-update", func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		if err := l.users.IncrCounters(ctx, userID, delta); err != nil {
			counterUpdateFailuresTotal.Inc()
			l.logger.Sugar().Errorf("failed to update counters(%+v) of user(%s): %s", delta, userID, err.Error())
		}
	})
}

func (l *ledger) postCreated(authorID string) {
	l.apply(authorID, model.CounterDelta{Posts: 1})
}

func (l *ledger) postDeleted(authorID string, likes int64) {
	l.apply(authorID, model.CounterDelta{Posts: -1, LikesReceived: -likes})
}

func (l *ledger) likeToggled(authorID string, added bool) {
	delta := int64(-1)
	if added {
		delta = 1
	}
	l.apply(authorID, model.CounterDelta{LikesReceived: delta})
}

func (l *ledger) summaryRequested(userID string) {
	l.apply(userID, model.CounterDelta{AISummaries: 1})
}
