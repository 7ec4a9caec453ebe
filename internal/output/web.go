// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package output

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the monitor is served on the local network
	},
}

const writeWait = time.Second

// Monitor keeps the latest pose for the web page and streams every new one
// to connected websocket clients.
type Monitor struct {
	mu       sync.RWMutex
	lastPose orientation.Pose
	havePose bool

	clientsMu sync.Mutex
	clients   map[*monitorClient]struct{}
}

type monitorClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewMonitor() *Monitor {
	return &Monitor{clients: make(map[*monitorClient]struct{})}
}

// Last returns the latest pose.
func (m *Monitor) Last() (orientation.Pose, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPose, m.havePose
}

// SendPose stores p and queues it for every client. Slow clients miss
// poses rather than blocking the tracker.
func (m *Monitor) SendPose(p orientation.Pose) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.lastPose, m.havePose = p, true
	m.mu.Unlock()

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	for c := range m.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
	return nil
}

// Clients returns the number of connected websocket clients.
func (m *Monitor) Clients() int {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	return len(m.clients)
}

// Handler serves /api/orientation and /ws, and static files from dir when
// dir is not empty.
func (m *Monitor) Handler(dir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orientation", m.handleOrientation)
	mux.HandleFunc("/ws", m.handleWS)
	if dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	}
	return mux
}

func (m *Monitor) handleOrientation(w http.ResponseWriter, _ *http.Request) {
	p, ok := m.Last()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (m *Monitor) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	c := &monitorClient{conn: conn, send: make(chan []byte, 16)}

	m.clientsMu.Lock()
	m.clients[c] = struct{}{}
	m.clientsMu.Unlock()

	if p, ok := m.Last(); ok {
		if payload, err := json.Marshal(p); err == nil {
			c.send <- payload
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain client frames so close messages are seen.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}()

	defer func() {
		m.clientsMu.Lock()
		delete(m.clients, c)
		m.clientsMu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
