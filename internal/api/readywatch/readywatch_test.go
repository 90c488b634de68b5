package readywatch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/louisbranch/concord.quest/internal/game/domain"
)

func testStatus(submitted int) domain.TurnStatus {
	return domain.TurnStatus{
		SessionID:        "sess-1",
		Turn:             1,
		TotalPlayers:     2,
		SubmittedActions: submitted,
	}
}

func TestWatchReceivesInitialAndPushedStatus(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Watch(w, r, testStatus(0))
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial domain.TurnStatus
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial status: %v", err)
	}
	if initial.SubmittedActions != 0 {
		t.Fatalf("initial = %+v, want 0 submitted", initial)
	}

	hub.Notify(testStatus(1))

	var pushed domain.TurnStatus
	if err := conn.ReadJSON(&pushed); err != nil {
		t.Fatalf("read pushed status: %v", err)
	}
	if pushed.SubmittedActions != 1 {
		t.Fatalf("pushed = %+v, want 1 submitted", pushed)
	}
}

func TestNotifyDropsClosedConnections(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Watch(w, r, testStatus(0))
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.WatcherCount("sess-1", 1) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher was not unregistered after close")
		}
		hub.Notify(testStatus(1))
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNotifyWithoutWatchersIsNoop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.Notify(testStatus(3))
	if got := hub.WatcherCount("sess-1", 1); got != 0 {
		t.Fatalf("watcher count = %d, want 0", got)
	}
}
