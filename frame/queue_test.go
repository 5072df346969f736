package frame

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(3)

	a := NewBuffer(Descriptor{})
	b := NewBuffer(Descriptor{})
	require.True(t, q.Push(a))
	require.True(t, q.Push(b))

	got, ok := q.PopTimeout(time.Millisecond)
	require.True(t, ok)
	assert.Same(t, a, got)

	got, ok = q.PopTimeout(time.Millisecond)
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestQueueFullDoesNotBlock(t *testing.T) {
	q := NewQueue(2)
	require.True(t, q.Push(NewBuffer(Descriptor{})))
	require.True(t, q.Push(NewBuffer(Descriptor{})))

	done := make(chan bool, 1)
	go func() {
		done <- q.Push(NewBuffer(Descriptor{}))
	}()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Push blocked on a full queue")
	}
	assert.Equal(t, 2, q.Len())
}

func TestQueuePopTimeout(t *testing.T) {
	q := NewQueue(3)

	start := time.Now()
	b, ok := q.PopTimeout(50 * time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Nil(t, b)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second, "timed pop overshot its bound")
}

func TestQueueDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultQueueCapacity, NewQueue(0).Cap())
	assert.Equal(t, DefaultQueueCapacity, NewQueue(-1).Cap())
}

// TestQueueLengthBound checks len(queue) <= capacity under a concurrent
// push/pop storm.
func TestQueueLengthBound(t *testing.T) {
	q := NewQueue(3)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			q.Push(NewBuffer(Descriptor{}))
			assert.LessOrEqual(t, q.Len(), q.Cap())
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				q.PopTimeout(time.Millisecond)
				assert.LessOrEqual(t, q.Len(), q.Cap())
			}
		}
	}()

	wg.Wait()
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue(3)
	require.True(t, q.Push(NewBuffer(Descriptor{})))
	require.True(t, q.Push(NewBuffer(Descriptor{})))

	drained := q.Drain()
	assert.Len(t, drained, 2)
	assert.Zero(t, q.Len())
	assert.Empty(t, q.Drain())
}
