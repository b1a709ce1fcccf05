package trickle

import (
	"context"
	"io"
)

// Consume drives s to a terminal status, calling onUpdate with the full
// accumulated text after every delta. It returns the final text on
// completion, or the partial text together with the stream's error.
//
// The stream is closed when Consume returns and as soon as ctx is done, so a
// cancelled context ends a blocked read with ErrCancelled.
func Consume(ctx context.Context, s Stream, onUpdate func(text string)) (string, error) {
	defer s.Close()
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		u, err := s.Next()
		if err == io.EOF {
			return s.Text(), nil
		}
		if err != nil {
			return s.Text(), err
		}
		if onUpdate != nil {
			onUpdate(u.Text)
		}
	}
}
