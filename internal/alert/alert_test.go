package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForPending(t *testing.T, s *Service, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Pending() == n }, time.Second, 5*time.Millisecond)
}

func TestOpen_BlocksUntilDismissed(t *testing.T) {
	s := NewService()
	done := make(chan error, 1)

	go func() {
		done <- s.Open(context.Background(), Options{Title: "Printer offline"})
	}()
	waitForPending(t, s, 1)

	select {
	case <-done:
		t.Fatal("Open returned before the alert was dismissed")
	case <-time.After(50 * time.Millisecond):
	}

	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "Printer offline", current.Title)

	assert.True(t, s.Dismiss(current.ID))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Open did not return after dismissal")
	}

	_, ok = s.Current()
	assert.False(t, ok)
	assert.False(t, s.Dismiss(current.ID), "dismissing an empty queue should be a no-op")
}

func TestOpen_QueuesInOrder(t *testing.T) {
	s := NewService()
	var wg sync.WaitGroup
	resolved := make(chan string, 3)

	for i, title := range []string{"first", "second", "third"} {
		wg.Add(1)
		go func(title string) {
			defer wg.Done()
			if err := s.Open(context.Background(), Options{Title: title}); err == nil {
				resolved <- title
			}
		}(title)
		// Serialize enqueue order.
		waitForPending(t, s, i+1)
	}

	for _, want := range []string{"first", "second", "third"} {
		current, ok := s.Current()
		require.True(t, ok)
		assert.Equal(t, want, current.Title, "only the head of the queue should be visible")
		require.True(t, s.Dismiss(current.ID))
		assert.Equal(t, want, <-resolved)
	}
	wg.Wait()
	assert.Equal(t, 0, s.Pending())
}

func TestOpen_ResolvesExactlyOnce(t *testing.T) {
	s := NewService()
	var count int
	var mu sync.Mutex
	done := make(chan struct{})

	go func() {
		_ = s.Open(context.Background(), Options{Title: "once"})
		mu.Lock()
		count++
		mu.Unlock()
		close(done)
	}()
	waitForPending(t, s, 1)

	current, ok := s.Current()
	require.True(t, ok)
	assert.True(t, s.Dismiss(current.ID))
	assert.False(t, s.Dismiss(current.ID))
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestOpen_ContextCancelWithdrawsAlert(t *testing.T) {
	s := NewService()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.Open(ctx, Options{Title: "stale"})
	}()
	waitForPending(t, s, 1)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, s.Pending())
}

func TestChanges_Signalled(t *testing.T) {
	s := NewService()
	go func() { _ = s.Open(context.Background(), Options{Title: "x"}) }()

	select {
	case <-s.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after Open")
	}

	waitForPending(t, s, 1)
	current, _ := s.Current()
	s.Dismiss(current.ID)
	select {
	case <-s.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal after Dismiss")
	}
}

func TestDismiss_IgnoresAlertThatIsNoLongerShown(t *testing.T) {
	s := NewService()
	resolved := make(chan string, 2)
	for i, title := range []string{"first", "second"} {
		go func(title string) {
			if err := s.Open(context.Background(), Options{Title: title}); err == nil {
				resolved <- title
			}
		}(title)
		waitForPending(t, s, i+1)
	}

	first, ok := s.Current()
	require.True(t, ok)
	require.True(t, s.Dismiss(first.ID))
	assert.Equal(t, "first", <-resolved)

	// A repeated dismissal of the first alert must not resolve the second.
	assert.False(t, s.Dismiss(first.ID))
	second, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "second", second.Title)
	assert.Greater(t, second.ID, first.ID)
	select {
	case title := <-resolved:
		t.Fatalf("%s resolved without being dismissed", title)
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, s.Dismiss(second.ID))
	assert.Equal(t, "second", <-resolved)
}
