package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	published int
	delivered int
	lastErr   error
}

func (o *testObserver) OnPublish(Event) { o.published++ }

func (o *testObserver) OnDelivered(_ Kind, handlers int, err error, _ time.Duration) {
	o.delivered += handlers
	o.lastErr = err
}

func TestPublishSubscribe(t *testing.T) {
	b := New()
	var got []Event
	_, err := b.Subscribe(WorldRegistered, func(e Event) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent(WorldRegistered, "P8X-873", 2)))
	require.NoError(t, b.Publish(NewEvent(WorldRemoved, "P8X-873", 2)))

	require.Len(t, got, 1)
	assert.Equal(t, "P8X-873", got[0].Designation)
	assert.Equal(t, int32(2), got[0].Dimension)
	assert.False(t, got[0].Time.IsZero())
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA, errB := errors.New("a"), errors.New("b")
	_, _ = b.Subscribe(WorldSaved, func(Event) error { return errA })
	_, _ = b.Subscribe(WorldSaved, func(Event) error { return errB })

	err := b.Publish(NewEvent(WorldSaved, "P3X-888", 3))
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestCancel(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe(WorldRemoved, func(Event) error { calls++; return nil })
	require.NoError(t, err)
	assert.Equal(t, WorldRemoved, sub.Kind())
	assert.NotEmpty(t, sub.ID())

	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	assert.False(t, sub.IsActive())
	require.NoError(t, b.Unsubscribe(nil))

	require.NoError(t, b.Publish(NewEvent(WorldRemoved, "P3X-888", 3)))
	assert.Zero(t, calls)
}

func TestNilHandler(t *testing.T) {
	_, err := New().Subscribe(WorldSaved, nil)
	assert.Error(t, err)
}

func TestMetricsOnlyWithObservers(t *testing.T) {
	b := New()
	_, _ = b.Subscribe(WorldSaved, func(Event) error { return nil })
	require.NoError(t, b.Publish(NewEvent(WorldSaved, "P8X-873", 2)))
	assert.Zero(t, b.Metrics().Published)

	obs := &testObserver{}
	b.AddObserver(obs)
	_, _ = b.Subscribe(WorldLoadFailed, func(e Event) error { return e.Err })
	require.NoError(t, b.Publish(NewEvent(WorldSaved, "P8X-873", 2)))

	failed := NewEvent(WorldLoadFailed, "P3X-888", 0)
	failed.Err = errors.New("corrupt")
	assert.Error(t, b.Publish(failed))

	m := b.Metrics()
	assert.Equal(t, uint64(2), m.Published)
	assert.Equal(t, uint64(2), m.DeliveredHandlers)
	assert.Equal(t, uint64(1), m.Errors)
	assert.Equal(t, uint64(2), m.SubscribersActive)
	assert.Equal(t, 2, obs.published)
	assert.Equal(t, 2, obs.delivered)
	assert.EqualError(t, obs.lastErr, "corrupt")

	b.RemoveObserver(obs)
	require.NoError(t, b.Publish(NewEvent(WorldSaved, "P8X-873", 2)))
	assert.Equal(t, 2, obs.published)
}
