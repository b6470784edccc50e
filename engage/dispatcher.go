package engage

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Dispatcher runs fire-and-forget tasks on their own goroutines, detached
// from the request context, and hands failures to OnError.
type Dispatcher struct {
	timeout time.Duration
	onError func(name string, err error)
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, onError func(name string, err error)) *Dispatcher {
	if onError == nil {
		onError = LogError
	}
	return &Dispatcher{timeout: timeout, onError: onError}
}

// LogError is the default error callback.
func LogError(name string, err error) { log.Printf("[emit] %s: %v", name, err) }

func (d *Dispatcher) Go(ctx context.Context, name string, task func(ctx context.Context) error) {
	// 请求结束后 ctx 会被取消，这里只继承 value
	base := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.onError(name, fmt.Errorf("panic: %v", r))
			}
		}()
		tctx := base
		if d.timeout > 0 {
			var cancel context.CancelFunc
			tctx, cancel = context.WithTimeout(base, d.timeout)
			defer cancel()
		}
		if err := task(tctx); err != nil {
			d.onError(name, err)
		}
	}()
}

// Wait blocks until every task started so far has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }
