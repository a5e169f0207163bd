package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Fanout delivers each change event to every configured sink concurrently.
type Fanout struct {
	publishers []Publisher
}

// NewFanout skips nil entries so optional sinks can be passed through unchecked.
func NewFanout(pubs []Publisher) *Fanout {
	active := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			active = append(active, p)
		}
	}
	return &Fanout{publishers: active}
}

// Publish waits for every sink and reports how many accepted the event.
// Failures are joined in registration order.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f.Size() == 0 {
		return 0, nil
	}

	results := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			if err := p.Publish(ctx, evt); err != nil {
				results[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
			}
		}(i, p)
	}
	wg.Wait()

	delivered := 0
	for _, err := range results {
		if err == nil {
			delivered++
		}
	}
	return delivered, errors.Join(results...)
}

// Size returns the number of sinks events are delivered to.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases sinks that hold broker connections.
func (f *Fanout) Close() error {
	var errs []error
	for i := 0; i < f.Size(); i++ {
		p := f.publishers[i]
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
		}
	}
	return errors.Join(errs...)
}
