package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jobboard/tracker/internal/controller"
	"github.com/jobboard/tracker/internal/tracker"
	"github.com/jobboard/tracker/internal/view"
)

type testEnv struct {
	ctrl   *controller.Controller
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	seed, err := tracker.DefaultSeed()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}
	ctrl := controller.New(tracker.NewBoard(tracker.NewMemoryRepository()))
	if _, err := ctrl.Start(seed); err != nil {
		t.Fatalf("start: %v", err)
	}

	s := NewServer(ctrl, time.Second)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleSubscribe)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{ctrl: ctrl, server: srv}
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readView(t *testing.T, ctx context.Context, conn *websocket.Conn) ViewMessage {
	t.Helper()
	var msg ViewMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "view" {
		t.Fatalf("expected view message, got %s", msg.Type)
	}
	return msg
}

func TestServer_SendsViewOnConnect(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	msg := readView(t, ctx, conn)

	if msg.View.Dashboard.Total != 8 || len(msg.View.Cards) != 8 {
		t.Errorf("unexpected initial view: %+v", msg.View.Dashboard)
	}
}

func TestServer_ToggleBroadcastsToAllClients(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a := env.dial(t, ctx)
	readView(t, ctx, a)
	b := env.dial(t, ctx)
	readView(t, ctx, b)

	// A refresh round trip guarantees b is registered for broadcasts.
	wsjson.Write(ctx, b, BaseMessage{Type: "refresh"})
	readView(t, ctx, b)

	id := 3
	wsjson.Write(ctx, a, ToggleMessage{Type: "toggle", ID: &id, Status: "interview"})

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		msg := readView(t, ctx, conn)
		if msg.View.Dashboard.Interviewing != 1 {
			t.Errorf("client %s: expected 1 interviewing, got %d", name, msg.View.Dashboard.Interviewing)
		}
	}
}

func TestServer_ControllerEventsReachClients(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	readView(t, ctx, conn)
	wsjson.Write(ctx, conn, BaseMessage{Type: "refresh"})
	readView(t, ctx, conn)

	env.ctrl.Delete(5)

	msg := readView(t, ctx, conn)
	if msg.View.Dashboard.Total != 7 {
		t.Errorf("expected total 7, got %d", msg.View.Dashboard.Total)
	}
}

func TestServer_FilterAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	readView(t, ctx, conn)

	wsjson.Write(ctx, conn, FilterMessage{Type: "filter", Filter: "rejected"})
	msg := readView(t, ctx, conn)
	if !msg.View.Empty || msg.View.Filter != tracker.FilterRejected {
		t.Errorf("expected empty rejected tab, got filter=%s empty=%v", msg.View.Filter, msg.View.Empty)
	}

	id := 0
	wsjson.Write(ctx, conn, DeleteMessage{Type: "delete", ID: &id})
	msg = readView(t, ctx, conn)
	if msg.View.Dashboard.Total != 8 {
		t.Errorf("deleting an unknown id must be a no-op, got total %d", msg.View.Dashboard.Total)
	}
}

func TestServer_InvalidMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := env.dial(t, ctx)
	readView(t, ctx, conn)

	for _, payload := range []any{
		map[string]any{"type": "toggle", "status": "interview"},
		map[string]any{"type": "toggle", "id": 1, "status": "hired"},
		map[string]any{"type": "filter", "filter": "offer"},
		map[string]any{"type": "launch"},
	} {
		wsjson.Write(ctx, conn, payload)

		var msg ErrorMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != "error" || msg.Error == "" {
			t.Errorf("payload %v: expected error message, got %+v", payload, msg)
		}
	}

	// The connection stays usable after errors.
	wsjson.Write(ctx, conn, BaseMessage{Type: "refresh"})
	if msg := readView(t, ctx, conn); msg.View.Dashboard.Total != 8 {
		t.Errorf("expected total 8, got %d", msg.View.Dashboard.Total)
	}
}

func TestServer_ConnectDuringEventsEndsOnLatestView(t *testing.T) {
	env := newTestEnv(t)

	for round := 0; round < 40; round++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				env.ctrl.Toggle(1, tracker.StatusInterviewing)
			}
		}()

		conn := env.dial(t, ctx)
		wg.Wait()

		// Read until the connection goes quiet; the last frame must match
		// the board as it stands now.
		var last ViewMessage
		for {
			readCtx, readCancel := context.WithTimeout(ctx, 200*time.Millisecond)
			var msg ViewMessage
			err := wsjson.Read(readCtx, conn, &msg)
			readCancel()
			if err != nil {
				break
			}
			last = msg
		}
		cancel()

		want, _ := env.ctrl.View()
		if last.Type != "view" {
			t.Fatalf("round %d: no view received", round)
		}
		if last.View.Cards[0].Status != want.Cards[0].Status || last.View.Dashboard != want.Dashboard {
			t.Fatalf("round %d: client ended on %s, board is %s", round, last.View.Cards[0].Status, want.Cards[0].Status)
		}
	}
}

func TestServer_StalledClientDoesNotBlockEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// This client never reads, so its frames pile up in the socket buffers.
	env.dial(t, ctx)

	start := time.Now()
	for i := 0; i < 500; i++ {
		if _, err := env.ctrl.Toggle(i%8+1, tracker.StatusRejected); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("events took %s with a stalled client", elapsed)
	}
}

func TestServer_CloseDetachesClients(t *testing.T) {
	seed, err := tracker.DefaultSeed()
	if err != nil {
		t.Fatalf("default seed: %v", err)
	}
	ctrl := controller.New(tracker.NewBoard(tracker.NewMemoryRepository()))
	ctrl.Start(seed)

	s := NewServer(ctrl, time.Second)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleSubscribe))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	for i := 0; i < 2; i++ {
		conn, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		readView(t, ctx, conn)
		go func() {
			for {
				if _, _, err := conn.Read(context.Background()); err != nil {
					return
				}
			}
		}()
	}
	if n := ctrl.Subscribers(); n != 2 {
		t.Fatalf("expected 2 subscribers, got %d", n)
	}

	s.Close()

	deadline := time.Now().Add(3 * time.Second)
	for ctrl.Subscribers() != 0 || s.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("still attached after close: subscribers=%d clients=%d", ctrl.Subscribers(), s.Clients())
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		defer conn.Close(websocket.StatusNormalClosure, "")
		var msg ViewMessage
		if err := wsjson.Read(ctx, conn, &msg); err == nil {
			t.Error("expected a closed server to refuse new clients")
		}
	}
	if n := ctrl.Subscribers(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestClient_PushKeepsLatestPage(t *testing.T) {
	c := &client{views: make(chan view.Page, 1)}

	for i := 1; i <= 3; i++ {
		c.push(view.Page{TabCount: i})
	}

	select {
	case p := <-c.views:
		if p.TabCount != 3 {
			t.Errorf("expected latest page, got %d", p.TabCount)
		}
	default:
		t.Fatal("expected a pending page")
	}
	select {
	case p := <-c.views:
		t.Errorf("expected one pending page, got another: %d", p.TabCount)
	default:
	}
}
