package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/wikihat/internal/diagnostics"
	"github.com/coreman2200/wikihat/internal/model"
)

// State mirrors the simulated strip and display to websocket clients.
type State struct {
	// wmu serializes websocket writes; gorilla allows one writer per conn.
	wmu         sync.Mutex
	mu          sync.RWMutex
	rgb         []byte
	brightness  uint8
	text        string
	frameID     uint64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
	lastDiag    []diag.Diagnostic
}

type frame struct {
	T          int64  `json:"t"`
	FrameID    uint64 `json:"frame_id"`
	RGB        []byte `json:"rgb"`
	Brightness uint8  `json:"brightness"`
	Display    string `json:"display"`
}

const diagBacklog = 32

func NewState() *State {
	return &State{
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// Handler serves /ws, /diag and /health.
func (s *State) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return withCORS(mux)
}

// PublishFrame is a led.FrameObserver.
func (s *State) PublishFrame(f model.Frame, brightness uint8) {
	s.mu.Lock()
	s.rgb = f.RGB()
	s.brightness = brightness
	s.frameID++
	s.mu.Unlock()
	s.broadcastFrame()
}

// PublishText is a segment.TextObserver.
func (s *State) PublishText(text string) {
	s.mu.Lock()
	s.text = text
	s.frameID++
	s.mu.Unlock()
	s.broadcastFrame()
}

func (s *State) PushDiag(d diag.Diagnostic) {
	s.mu.Lock()
	s.lastDiag = append(s.lastDiag, d)
	if len(s.lastDiag) > diagBacklog {
		s.lastDiag = s.lastDiag[len(s.lastDiag)-diagBacklog:]
	}
	s.mu.Unlock()

	b, _ := json.Marshal(d)
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.wmu.Lock()
	s.mu.Lock()
	s.clients[conn] = true
	b := s.frameLocked()
	s.mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, b)
	s.wmu.Unlock()

	go s.drain(conn, s.clients)
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.wmu.Lock()
	s.mu.Lock()
	s.diagClients[conn] = true
	backlog := append([]diag.Diagnostic(nil), s.lastDiag...)
	s.mu.Unlock()
	for _, d := range backlog {
		b, _ := json.Marshal(d)
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}
	s.wmu.Unlock()

	go s.drain(conn, s.diagClients)
}

// drain reads until the client goes away, then forgets it.
func (s *State) drain(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id":   s.frameID,
		"uptime_s":   time.Since(s.startTime).Seconds(),
		"count":      len(s.rgb) / 3,
		"brightness": s.brightness,
		"display":    s.text,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) frameLocked() []byte {
	b, _ := json.Marshal(frame{
		T:          time.Now().UnixNano(),
		FrameID:    s.frameID,
		RGB:        append([]byte{}, s.rgb...),
		Brightness: s.brightness,
		Display:    s.text,
	})
	return b
}

func (s *State) broadcastFrame() {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.frameLocked()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
