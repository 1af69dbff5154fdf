package notify

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for hint")
		return ""
	}
}

func TestHubFansOutToEverySubscriber(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := hub.Subscribe(ctx)
	b := hub.Subscribe(ctx)
	if err := hub.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := receive(t, a); got != Refresh {
		t.Fatalf("expected %q, got %q", Refresh, got)
	}
	if got := receive(t, b); got != Refresh {
		t.Fatalf("expected %q, got %q", Refresh, got)
	}
}

func TestHubCoalescesAndUnsubscribes(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	ch := hub.Subscribe(ctx)
	for i := 0; i < 5; i++ {
		_ = hub.Publish(ctx)
	}
	receive(t, ch)
	select {
	case <-ch:
		t.Fatalf("expected hints to coalesce")
	default:
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after cancel")
	}
	if n := hub.Subscribers(); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}

func TestRedisRelaysAcrossProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newNotifier := func() *Redis {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		n := NewRedis(client, "")
		go func() { _ = n.Run(ctx) }()
		return n
	}
	sender := newNotifier()
	receiver := newNotifier()
	hints := receiver.Subscribe(ctx)

	// wait until both relays are subscribed
	deadline := time.Now().Add(2 * time.Second)
	for {
		if mr.PubSubNumSub(DefaultChannel)[DefaultChannel] == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("relays never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := sender.Publish(ctx); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := receive(t, hints); got != Refresh {
		t.Fatalf("expected %q, got %q", Refresh, got)
	}
}
