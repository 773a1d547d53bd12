// Package net lets remote input devices drive a painting session over
// websockets and finds sessions on the local network.
package net

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"PaperPen/internal/export"
	"PaperPen/internal/state"
)

const (
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
	// Input messages are a few hundred bytes at most.
	maxMessage = 1 << 16
)

// Executor runs f on the goroutine that owns the session.
type Executor func(f func())

// Dispatcher is an Executor backed by one goroutine, for sessions with
// no UI thread to borrow.
type Dispatcher struct {
	work chan func()
	done chan struct{}
}

// NewDispatcher returns a dispatcher; call Run to start it.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{work: make(chan func(), sendBuffer), done: make(chan struct{})}
}

// Run executes queued work until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-d.work:
			f()
		}
	}
}

// Do queues f. It blocks while the queue is full and drops f once the
// dispatcher has stopped.
func (d *Dispatcher) Do(f func()) {
	select {
	case d.work <- f:
	case <-d.done:
	}
}

// HubOptions configures a Hub.
type HubOptions struct {
	// Exec serializes access to the session. Required.
	Exec Executor
	// Export holds the defaults export messages start from.
	Export export.Options
	Logger *slog.Logger
}

// Hub accepts websocket clients, funnels their messages into one session
// and broadcasts the session's notices to all of them.
type Hub struct {
	session  *state.Session
	exec     Executor
	export   export.Options
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	addr string
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub subscribes a hub to s. Call it on the goroutine that owns s.
func NewHub(s *state.Session, opts HubOptions) *Hub {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := &Hub{
		session: s,
		exec:    opts.Exec,
		export:  opts.Export,
		log:     log,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Remote pads are other devices on the LAN, not browsers on
			// this origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.Subscribe(func(ev state.Event) {
		h.Broadcast(EventNotice(s, ev))
	})
	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("[remote] upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), addr: conn.RemoteAddr().String()}
	h.add(c)
	go h.writeLoop(c)

	h.exec(func() { h.sendTo(c, LayersNotice(h.session)) })
	h.readLoop(c)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.log.Info("[remote] client connected", "addr", c.addr, "clients", len(h.clients))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.close()
	h.log.Info("[remote] client left", "addr", c.addr, "clients", len(h.clients))
}

func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(maxMessage)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("[remote] read failed", "addr", c.addr, "err", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendTo(c, ErrorNotice(err))
			continue
		}
		h.log.Debug("[remote] received", "type", msg.Type, "addr", c.addr)
		h.exec(func() {
			art, err := Apply(h.session, msg, h.export)
			switch {
			case err != nil:
				h.sendTo(c, ErrorNotice(err))
			case art != nil:
				h.sendTo(c, ExportNotice(art))
			}
		})
	}
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("[remote] write failed", "addr", c.addr, "err", err)
			h.remove(c)
			// Drain so senders never block on a dead client.
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Broadcast sends n to every client. Clients too slow to keep up are
// disconnected.
func (h *Hub) Broadcast(n Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Error("[remote] encode notice", "type", n.Type, "err", err)
		return
	}
	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		h.log.Warn("[remote] dropping slow client", "addr", c.addr)
		h.remove(c)
	}
}

func (h *Hub) sendTo(c *client, n Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		h.log.Error("[remote] encode notice", "type", n.Type, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// ListenAndServe serves the hub at /ws on addr until ctx is done. ready,
// if not nil, receives the bound address once the listener is up.
func (h *Hub) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	h.log.Info("[remote] listening", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	h.Close()
	shutdown, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
