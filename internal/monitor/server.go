package monitor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/boriwo/cmdpix/internal/playback"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	clientBuffer = 16
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans samples out to WebSocket clients. Slow clients lose samples.
type Hub struct {
	mu      sync.Mutex
	latest  *playback.Sample
	clients map[chan playback.Sample]struct{}
	log     zerolog.Logger
}

// NewHub returns an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{clients: make(map[chan playback.Sample]struct{}), log: log}
}

// Observe implements playback.Telemetry without blocking.
func (h *Hub) Observe(s playback.Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &s
	for c := range h.clients {
		select {
		case c <- s:
		default:
		}
	}
}

// Latest returns the most recent sample, if any.
func (h *Hub) Latest() (playback.Sample, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return playback.Sample{}, false
	}
	return *h.latest, true
}

// Clients returns the number of connected WebSocket clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() chan playback.Sample {
	c := make(chan playback.Sample, clientBuffer)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c chan playback.Sample) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeWS streams samples as JSON messages until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	c := h.register()
	defer h.unregister(c)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case s := <-c:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

// Status is the body of GET /telemetry.
type Status struct {
	Latest *playback.Sample `json:"latest"`
	Stats  *playback.Stats  `json:"stats,omitempty"`
}

// NewRouter exposes the hub over HTTP. stats may be nil.
func NewRouter(h *Hub, stats func() (playback.Stats, bool)) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			h.log.Debug().Err(err).Str("path", req.URL.Path).Msg("write response")
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/telemetry", func(w http.ResponseWriter, req *http.Request) {
		var st Status
		if s, ok := h.Latest(); ok {
			st.Latest = &s
		}
		if stats != nil {
			if s, ok := stats(); ok {
				st.Stats = &s
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			h.log.Debug().Err(err).Str("path", req.URL.Path).Msg("write response")
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/telemetry/ws", h.ServeWS)
	return r
}

// Server is the monitor HTTP server.
type Server struct {
	srv *http.Server
	ln  net.Listener
	log zerolog.Logger
}

// Listen binds addr and serves handler in the background.
func Listen(addr string, handler http.Handler, log zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "monitor listen %s", addr)
	}
	s := &Server{
		srv: &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
		log: log,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("monitor server")
		}
	}()
	log.Info().Str("addr", ln.Addr().String()).Msg("monitor listening")
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server, closing hijacked WebSocket connections too.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
