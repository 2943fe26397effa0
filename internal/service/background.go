package service

import (
	"sync"

	"go.uber.org/zap"
)

// background runs work detached from the request that triggered it. Wait
// blocks until everything started so far has finished.
type background struct {
	logger *zap.Logger
	wg     sync.WaitGroup
}

func newBackground(logger *zap.Logger) *background {
	return &background{
		logger: logger,
	}
}

func (b *background) Go(name string, fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Sugar().Errorf("background task(%s) panicked: %v", name, r)
			}
		}()

		fn()
	}()
}

func (b *background) Wait() {
	b.wg.Wait()
}
