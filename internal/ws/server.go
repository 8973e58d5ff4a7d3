package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/jobboard/tracker/internal/controller"
	"github.com/jobboard/tracker/internal/tracker"
	"github.com/jobboard/tracker/internal/view"
)

var errMissingID = errors.New("id is required")

// Server pushes every recomputed page to connected clients and accepts the
// same events the HTML controls send.
type Server struct {
	ctrl         *controller.Controller
	writeTimeout time.Duration

	clientsMu sync.RWMutex
	clients   map[string]*client
	closed    bool
}

// client holds at most one unsent page. A newer page replaces it, so a slow
// reader skips intermediate pages but always ends on the latest one.
type client struct {
	id    string
	conn  *websocket.Conn
	views chan view.Page
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:    uuid.NewString(),
		conn:  conn,
		views: make(chan view.Page, 1),
	}
}

// push never blocks. The controller calls it with the event lock held, so
// there is a single producer at a time.
func (c *client) push(p view.Page) {
	for {
		select {
		case c.views <- p:
			return
		default:
		}
		select {
		case <-c.views:
		default:
		}
	}
}

func NewServer(ctrl *controller.Controller, writeTimeout time.Duration) *Server {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Server{
		ctrl:         ctrl,
		writeTimeout: writeTimeout,
		clients:      make(map[string]*client),
	}
}

func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Close disconnects every client and refuses new ones. Each connection
// detaches from the controller as its handler returns.
func (s *Server) Close() {
	s.clientsMu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c.conn)
	}
	s.clientsMu.Unlock()

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn.Close(websocket.StatusGoingAway, "server shutting down")
		}()
	}
	wg.Wait()
}

func (s *Server) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("WebSocket accept error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "goodbye")

	c := newClient(conn)
	if !s.register(c) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer s.unregister(c)

	detach, err := s.ctrl.Attach(c.push)
	if err != nil {
		log.Printf("Client %s: %v", c.id, err)
		conn.Close(websocket.StatusInternalError, "view unavailable")
		return
	}
	defer detach()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.writeViews(ctx, c)

	s.handleMessages(ctx, c)
}

func (s *Server) register(c *client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c.id] = c
	log.Printf("Client connected: %s (total: %d)", c.id, len(s.clients))
	return true
}

func (s *Server) unregister(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, c.id)
	log.Printf("Client disconnected: %s (total: %d)", c.id, len(s.clients))
}

// writeViews drains the client's page slot until the connection ends.
func (s *Server) writeViews(ctx context.Context, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-c.views:
			if err := s.write(ctx, c.conn, ViewMessage{Type: "view", View: p}); err != nil {
				if ctx.Err() == nil {
					log.Printf("Failed to send view to %s: %v", c.id, err)
					c.conn.Close(websocket.StatusGoingAway, "write failed")
				}
				return
			}
		}
	}
}

func (s *Server) handleMessages(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		if err := s.dispatch(c, data); err != nil {
			log.Printf("Client %s: %v", c.id, err)
			s.write(ctx, c.conn, ErrorMessage{Type: "error", Error: err.Error()})
		}
	}
}

// dispatch routes one client message. Every page, including the refresh
// reply, goes through the client's slot so frames stay in event order.
func (s *Server) dispatch(c *client, data []byte) error {
	var msg BaseMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.New("invalid message format")
	}

	switch msg.Type {
	case "filter":
		var m FilterMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return errors.New("invalid filter message")
		}
		f, err := tracker.ParseFilter(m.Filter)
		if err != nil {
			return err
		}
		_, err = s.ctrl.SelectTab(f)
		return err

	case "toggle":
		var m ToggleMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return errors.New("invalid toggle message")
		}
		if m.ID == nil {
			return errMissingID
		}
		status, err := tracker.ParseToggle(m.Status)
		if err != nil {
			return err
		}
		_, err = s.ctrl.Toggle(*m.ID, status)
		return err

	case "delete":
		var m DeleteMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return errors.New("invalid delete message")
		}
		if m.ID == nil {
			return errMissingID
		}
		_, err := s.ctrl.Delete(*m.ID)
		return err

	case "refresh":
		return s.ctrl.Publish(c.push)

	default:
		return errors.New("unknown message type: " + msg.Type)
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, msg any) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
