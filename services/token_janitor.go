package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-platform/utils"
)

// Purger removes expired rows and reports how many were dropped.
type Purger interface {
	PurgeRevoked(ctx context.Context) (int64, error)
}

// TokenJanitor periodically purges revoked refresh tokens that have expired.
type TokenJanitor struct {
	Purger   Purger
	Interval time.Duration
	StopChan chan struct{}

	stopOnce sync.Once
	done     chan struct{}
}

func NewTokenJanitor(purger Purger, interval time.Duration) *TokenJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenJanitor{
		Purger:   purger,
		Interval: interval,
		StopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (tj *TokenJanitor) Start() {
	go func() {
		defer close(tj.done)
		ticker := time.NewTicker(tj.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				tj.sweep()
			case <-tj.StopChan:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running sweep to finish.
func (tj *TokenJanitor) Stop() {
	tj.stopOnce.Do(func() {
		close(tj.StopChan)
		<-tj.done
	})
}

func (tj *TokenJanitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), tj.Interval)
	defer cancel()

	n, err := tj.Purger.PurgeRevoked(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Error purging revoked tokens: %v", err)
		return
	}
	if n > 0 {
		utils.InfoLogger.Printf("Purged %d expired revoked tokens", n)
	}
}
