package notify

import (
	"context"
	stderrors "errors"
	"strings"
)

// Multi delivers each batch to every sink in order. All sinks are attempted;
// the first error is returned.
type Multi []Sink

func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, s := range m {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (m Multi) Send(ctx context.Context, b Batch) error {
	var first error
	for _, s := range m {
		if err := s.Send(ctx, b); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every sink that holds a connection.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return stderrors.Join(errs...)
}
