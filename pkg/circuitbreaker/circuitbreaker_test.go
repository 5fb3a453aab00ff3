package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errUpstream = errors.New("upstream down")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	b := New[int]("users", Config{ConsecutiveFailures: 2, OpenTimeout: time.Minute, HalfOpenRequests: 1}, zap.NewNop())

	for range 2 {
		_, err := b.Execute(func() (int, error) { return 0, errUpstream })
		assert.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, "open", b.State())

	called := false
	_, err := b.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	b := New[string]("products", Config{ConsecutiveFailures: 1, OpenTimeout: 20 * time.Millisecond, HalfOpenRequests: 1}, zap.NewNop())

	_, err := b.Execute(func() (string, error) { return "", errUpstream })
	require.ErrorIs(t, err, errUpstream)
	require.Equal(t, "open", b.State())

	time.Sleep(40 * time.Millisecond)

	res, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_IsSuccessfulIgnoresClientErrors(t *testing.T) {
	errNotFound := errors.New("not found")
	cfg := Config{
		ConsecutiveFailures: 1,
		OpenTimeout:         time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
	}
	b := New[int]("users", cfg, zap.NewNop())

	for range 3 {
		_, err := b.Execute(func() (int, error) { return 0, errNotFound })
		assert.ErrorIs(t, err, errNotFound)
	}
	assert.Equal(t, "closed", b.State())
}
