package http_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/trickle"
	trhttp "github.com/fwojciec/trickle/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStallReader(t *testing.T) {
	t.Parallel()

	t.Run("passes reads through", func(t *testing.T) {
		t.Parallel()
		pr, pw := io.Pipe()
		s := trhttp.NewStallReader(pr, time.Second)
		defer s.Close()

		go func() {
			_, _ = pw.Write([]byte("abc"))
			_ = pw.Close()
		}()
		b, err := io.ReadAll(s)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(b))
		assert.False(t, s.Stalled())
	})

	t.Run("closes a quiet body", func(t *testing.T) {
		t.Parallel()
		pr, pw := io.Pipe()
		defer pw.Close()
		s := trhttp.NewStallReader(pr, 20*time.Millisecond)
		defer s.Close()

		_, err := s.Read(make([]byte, 8))
		assert.ErrorIs(t, err, trhttp.ErrStalled)
		assert.ErrorIs(t, err, trickle.ErrCancelled)
		assert.True(t, s.Stalled())
	})

	t.Run("time between reads is not a stall", func(t *testing.T) {
		t.Parallel()
		body := io.NopCloser(strings.NewReader("alpha\nbravo\ncharlie\n"))
		s := trhttp.NewStallReader(body, 30*time.Millisecond)
		acc := trickle.NewAccumulator(s, trickle.NDJSON{},
			trickle.ParserFunc(func(p string) trickle.Record { return trickle.RecordDelta{Text: p} }),
			trickle.WithReadSize(8))

		var updates int
		text, err := trickle.Consume(context.Background(), acc, func(string) {
			updates++
			time.Sleep(80 * time.Millisecond)
		})

		require.NoError(t, err)
		assert.Equal(t, "alphabravocharlie", text)
		assert.Equal(t, 3, updates)
		assert.False(t, s.Stalled())
	})

	t.Run("stall surfaces as cancellation in the accumulator", func(t *testing.T) {
		t.Parallel()
		pr, pw := io.Pipe()
		defer pw.Close()
		go func() {
			_, _ = pw.Write([]byte("a\n"))
		}()
		acc := trickle.NewAccumulator(trhttp.NewStallReader(pr, 50*time.Millisecond), trickle.NDJSON{},
			trickle.ParserFunc(func(p string) trickle.Record { return trickle.RecordDelta{Text: p} }))
		defer acc.Close()

		u, err := acc.Next()
		require.NoError(t, err)
		assert.Equal(t, "a", u.Text)

		_, err = acc.Next()
		assert.True(t, errors.Is(err, trhttp.ErrStalled))
		assert.True(t, trickle.IsCancelled(err))
		assert.Equal(t, "a", acc.Text())
	})
}

func TestWithStall(t *testing.T) {
	t.Parallel()
	rc := io.NopCloser(nil)
	assert.Equal(t, rc, trhttp.WithStall(rc, 0))

	wrapped := trhttp.WithStall(io.NopCloser(nil), time.Minute)
	s, ok := wrapped.(*trhttp.StallReader)
	require.True(t, ok)
	require.NoError(t, s.Close())
}
