package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ring-arena/internal/combat"
	"ring-arena/internal/telemetry"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*WebSocketHub, *telemetry.HealthFeed, string) {
	t.Helper()
	hub := NewWebSocketHub(NewOriginChecker([]string{"http://localhost:*"}), 2)
	feed := telemetry.NewHealthFeed(64)
	go hub.Run()
	hub.StartFeedLoop(feed)

	ts := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(func() {
		hub.Stop()
		ts.Close()
	})
	return hub, feed, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketStreamsHealthChanges(t *testing.T) {
	hub, feed, url := startHub(t)

	header := http.Header{"Origin": []string{"http://localhost:5173"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	feed.HealthChanged(combat.HealthChange{Target: 4, Delta: -20, Kind: combat.KindDamage, Step: 9})
	feed.HealthChanged(combat.HealthChange{Target: 4, Delta: -5, Kind: combat.KindCut, Step: 9})
	if n := feed.Flush(); n != 2 {
		t.Fatalf("Expected 2 changes flushed, got %d", n)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg struct {
		Event string             `json:"event"`
		Data  []healthChangeJSON `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event != "health:changed" {
		t.Errorf("Expected health:changed, got %s", msg.Event)
	}
	if len(msg.Data) != 2 || msg.Data[0].Delta != -20 || msg.Data[1].Kind != combat.KindCut.String() {
		t.Errorf("unexpected payload %+v", msg.Data)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	hub, _, url := startHub(t)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", resp)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", hub.ClientCount())
	}
}

func TestWebSocketPerIPLimit(t *testing.T) {
	hub, _, url := startHub(t)
	header := http.Header{"Origin": []string{"http://localhost:5173"}}

	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, header)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		defer conn.Close()
	}
	waitFor(t, func() bool { return hub.ClientCount() == 2 })

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("Expected third connection to be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %v", resp)
	}
}
