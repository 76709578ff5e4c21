package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
)

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	svc := NewService(common.GetLogger())

	var calls int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	require.NoError(t, svc.Subscribe(interfaces.EventImageFound, handler))
	require.NoError(t, svc.Subscribe(interfaces.EventImageFound, handler))

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventImageFound}))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPublishSyncAggregatesHandlerErrors(t *testing.T) {
	svc := NewService(common.GetLogger())

	require.NoError(t, svc.Subscribe(interfaces.EventSearchDrained, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("boom")
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSearchDrained})
	assert.Error(t, err)
}

func TestPublishIsAsynchronous(t *testing.T) {
	svc := NewService(common.GetLogger())

	done := make(chan struct{})
	require.NoError(t, svc.Subscribe(interfaces.EventSearchProgress, func(ctx context.Context, event interfaces.Event) error {
		close(done)
		return nil
	}))

	require.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventSearchProgress}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	svc := NewService(common.GetLogger())
	assert.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventImageNotFound}))
	assert.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventImageNotFound}))
}

func TestSubscribeNilHandlerFails(t *testing.T) {
	svc := NewService(common.GetLogger())
	assert.Error(t, svc.Subscribe(interfaces.EventImageFound, nil))
}
