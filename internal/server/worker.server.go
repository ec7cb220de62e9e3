package serverApp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/pkg/logger"
	checkoutService "storefront-checkout/internal/service/checkout"

	"github.com/panjf2000/ants/v2"
)

// NewWorkerPool creates the pool payment steps and event publishes run on.
// It never blocks a request: a full pool rejects the task instead.
func NewWorkerPool(size int) (*ants.Pool, error) {
	poolOpts := ants.Options{
		ExpiryDuration: time.Hour,
		PreAlloc:       false,
		Nonblocking:    true,
		PanicHandler: func(i interface{}) {
			logger.Error.Printf("Worker panic: %v\n", i)
		},
	}

	pool, err := ants.NewPool(size, ants.WithOptions(poolOpts))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return pool, nil
}

// InitWorker starts the background workers. They stop when ctx is done.
func InitWorker(ctx context.Context, wg *sync.WaitGroup, registry *checkoutService.Registry) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info.Println("Session reaper started")
		registry.Run(ctx)
		logger.Info.Println("Session reaper stopped")
	}()
}
