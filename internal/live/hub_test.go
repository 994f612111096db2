package live

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, tabID string) *Client {
	return &Client{
		hub:   hub,
		conn:  nil,
		tabID: tabID,
		send:  make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, "tab-1")
	c2 := mockClient(hub, "tab-1")

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)

	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "tab-1")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastReachesOnlySubscribedTab(t *testing.T) {
	hub := NewHub(slog.Default())

	subscribed := mockClient(hub, "tab-1")
	other := mockClient(hub, "tab-2")
	hub.Register(subscribed)
	hub.Register(other)

	hub.Broadcast(TabUpdated("tab-1", 7))

	select {
	case data := <-subscribed.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "tab_updated" {
			t.Errorf("expected type tab_updated, got %s", got.Type)
		}
		if got.TabID != "tab-1" {
			t.Errorf("expected tab tab-1, got %s", got.TabID)
		}
		if got.Revision != 7 {
			t.Errorf("expected revision 7, got %d", got.Revision)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case <-other.send:
		t.Fatal("client on another tab received the message")
	default:
	}

	hub.Unregister(subscribed)
	hub.Unregister(other)
}

func TestNudgeMessage(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, "tab-1")
	hub.Register(c)

	hub.Broadcast(Nudge("tab-1", "UNCLAIMED"))

	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != "nudge" || got.Reason != "UNCLAIMED" {
			t.Errorf("unexpected message: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestBroadcastEmptyHub(t *testing.T) {
	hub := NewHub(slog.Default())
	// Should not panic
	hub.Broadcast(TabUpdated("tab-1", 1))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(slog.Default())

	c := mockClient(hub, "tab-1")
	hub.Register(c)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Broadcast(TabUpdated("tab-1", int64(i)))
	}

	// This should drop the message, not panic or block
	hub.Broadcast(TabUpdated("tab-1", 999))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			if count != sendBufferSize {
				t.Fatalf("expected %d buffered messages, got %d", sendBufferSize, count)
			}
			return
		}
	}
}
