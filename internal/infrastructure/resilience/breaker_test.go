package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

func TestClosedPassesThrough(t *testing.T) {
	b := New("test", Settings{})

	result, err := b.Execute(func() (interface{}, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, StateClosed, b.State())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		Timeout:     time.Hour,
		ReadyToTrip: tripAfter(3),
	})

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (interface{}, error) { return nil, errBoom })
		assert.ErrorIs(t, err, errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	// Open breaker rejects without invoking the function.
	called := false
	_, err := b.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestSuccessResetsConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		Timeout:     time.Hour,
		ReadyToTrip: tripAfter(3),
	})

	fail := func() (interface{}, error) { return nil, errBoom }
	ok := func() (interface{}, error) { return nil, nil }

	b.Execute(fail)
	b.Execute(fail)
	b.Execute(ok)
	b.Execute(fail)
	b.Execute(fail)

	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenRecovery(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: tripAfter(1),
	})

	b.Execute(func() (interface{}, error) { return nil, errBoom })
	require.Equal(t, StateOpen, b.State())

	time.Sleep(30 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	// A successful probe closes the breaker.
	_, err := b.Execute(func() (interface{}, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: tripAfter(1),
	})

	b.Execute(func() (interface{}, error) { return nil, errBoom })
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	b.Execute(func() (interface{}, error) { return nil, errBoom })
	assert.Equal(t, StateOpen, b.State())
}

func TestHalfOpenQuota(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: tripAfter(1),
	})

	b.Execute(func() (interface{}, error) { return nil, errBoom })
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	// Occupy the single probe slot with a slow call.
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		b.Execute(func() (interface{}, error) {
			close(started)
			<-release
			return nil, nil
		})
		close(done)
	}()

	<-started
	_, err := b.Execute(func() (interface{}, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	<-done
}

func TestOnStateChange(t *testing.T) {
	var transitions []string
	b := New("test", Settings{
		Timeout:     time.Hour,
		ReadyToTrip: tripAfter(1),
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	b.Execute(func() (interface{}, error) { return nil, errBoom })
	require.Equal(t, []string{"closed->open"}, transitions)
}

func TestCounts(t *testing.T) {
	b := New("test", Settings{Timeout: time.Hour, ReadyToTrip: tripAfter(10)})

	b.Execute(func() (interface{}, error) { return nil, nil })
	b.Execute(func() (interface{}, error) { return nil, errBoom })
	b.Execute(func() (interface{}, error) { return nil, errBoom })

	counts := b.Counts()
	assert.Equal(t, uint32(3), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)
	assert.Equal(t, uint32(2), counts.TotalFailures)
	assert.Equal(t, uint32(2), counts.ConsecutiveFailures)
}
