package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToAllListeners(t *testing.T) {
	b := NewBroadcaster[int]()
	a := b.AddListener()
	c := b.AddListener()

	b.Broadcast(42)

	assert.Equal(t, 42, <-a)
	assert.Equal(t, 42, <-c)
}

func TestBroadcasterRemoveListenerClosesChannel(t *testing.T) {
	b := NewBroadcaster[int]()
	ch := b.AddListener()
	b.RemoveListener(ch)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroadcasterSkipsFullListenerWithoutBlocking(t *testing.T) {
	b := NewBroadcaster[int]()
	ch := b.AddListener()
	for i := 0; i < 20; i++ {
		b.Broadcast(i)
	}

	done := make(chan struct{})
	go func() {
		b.Broadcast(999)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a full listener channel")
	}
	_ = <-ch
}

func TestDataSourceStatusBroadcasterTracksCurrentStatus(t *testing.T) {
	b := NewDataSourceStatusBroadcaster()
	require.Equal(t, "INITIALIZING", string(b.GetStatus().State))

	ch := b.AddListener()
	b.Update(b.GetStatus())
	_ = ch
	assert.Equal(t, "INITIALIZING", string(b.GetStatus().State))
}
