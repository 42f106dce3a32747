// Package daemon implements livecapd: the upload/summary HTTP endpoints,
// the NDJSON event socket and the background transcription jobs.
package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/lkaiser/livecap/internal/backend"
)

// Hub owns the event socket. Clients connect, send a subscribe command and
// then receive every broadcast event as one JSON line. A subscriber that
// stops reading is dropped on the next failed write.
type Hub struct {
	mu   sync.Mutex
	subs map[net.Conn]*subscriber
	ln   net.Listener
}

type subscriber struct {
	conn net.Conn
	mu   sync.Mutex // serializes response and event writes
}

func (s *subscriber) writeLine(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Write(append(data, '\n'))
	return err
}

func NewHub() *Hub {
	return &Hub{subs: make(map[net.Conn]*subscriber)}
}

// Listen binds the event socket. An address of the form "unix:/path.sock"
// uses a Unix socket, anything else is host:port TCP, mirroring the client.
func (h *Hub) Listen(addr string) error {
	network := "tcp"
	if rest, ok := strings.CutPrefix(addr, "unix:"); ok {
		network, addr = "unix", rest
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("listen event socket: %w", err)
	}
	h.ln = ln
	return nil
}

// Addr returns the bound address, valid after Listen.
func (h *Hub) Addr() net.Addr {
	return h.ln.Addr()
}

// Serve accepts connections until the listener is closed.
func (h *Hub) Serve() error {
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			return err
		}
		go h.handleConn(conn)
	}
}

// Close shuts down the listener and every subscriber connection.
func (h *Hub) Close() error {
	var err error
	if h.ln != nil {
		err = h.ln.Close()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs {
		conn.Close()
		delete(h.subs, conn)
	}
	return err
}

func (h *Hub) handleConn(conn net.Conn) {
	defer func() {
		h.drop(conn)
		conn.Close()
	}()

	sub := &subscriber{conn: conn}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	for scanner.Scan() {
		var cmd backend.Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			h.reply(sub, backend.Response{Error: "malformed command"})
			continue
		}

		switch cmd.Cmd {
		case "subscribe":
			h.mu.Lock()
			h.subs[conn] = sub
			h.mu.Unlock()
			h.reply(sub, backend.Response{OK: true})
		default:
			h.reply(sub, backend.Response{Error: fmt.Sprintf("unknown command %q", cmd.Cmd)})
		}
	}
}

func (h *Hub) reply(sub *subscriber, resp backend.Response) {
	data, _ := json.Marshal(resp)
	if err := sub.writeLine(data); err != nil {
		log.Printf("event socket: write response: %v", err)
	}
}

// Broadcast sends an event to every subscriber. Dead connections are
// removed; a broadcast never blocks on a single slow client longer than
// the kernel send buffer allows.
func (h *Hub) Broadcast(ev backend.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("event socket: marshal event: %v", err)
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.writeLine(data); err != nil {
			h.drop(sub.conn)
			sub.conn.Close()
		}
	}
}

// Subscribers returns the current subscriber count, used by the status
// endpoint.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) drop(conn net.Conn) {
	h.mu.Lock()
	delete(h.subs, conn)
	h.mu.Unlock()
}
