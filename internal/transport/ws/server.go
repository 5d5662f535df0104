// Package ws serves game clients over WebSocket and exposes the small HTTP
// surface around it: the lobby listing, health and version endpoints, and
// optional static hosting of the browser client.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dogfight/internal/config"
	"github.com/cory-johannsen/dogfight/internal/game/session"
	"github.com/cory-johannsen/dogfight/internal/protocol"
)

// Relay is the subset of the game relay the transport drives.
type Relay interface {
	Connect(connID string) (*session.Entity, error)
	Disconnect(ctx context.Context, connID string) error
	Handle(ctx context.Context, connID string, frame []byte) error
	ListRooms(ctx context.Context) ([]protocol.RoomSummary, error)
}

// Server accepts WebSocket clients and hands their frames to a Relay.
type Server struct {
	httpCfg config.HTTPConfig
	wsCfg   config.WebSocketConfig
	relay   Relay
	logger  *zap.Logger
	version string

	upgrader websocket.Upgrader
	router   *mux.Router

	// mu guards srv, listener and closing, and orders wg.Add against Stop.
	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	closing  bool
	quit     chan struct{}
	wg       sync.WaitGroup
}

// NewServer builds the HTTP router and WebSocket upgrader.
//
// Precondition: relay and logger must be non-nil.
// Postcondition: Returns a Server ready for ListenAndServe or for mounting via Handler.
func NewServer(httpCfg config.HTTPConfig, wsCfg config.WebSocketConfig, relay Relay, logger *zap.Logger, version string) *Server {
	s := &Server{
		httpCfg: httpCfg,
		wsCfg:   wsCfg,
		relay:   relay,
		logger:  logger,
		version: version,
		quit:    make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.serveWS).Methods(http.MethodGet)
	r.HandleFunc("/api/rooms", s.serveRooms).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	r.HandleFunc("/version", s.serveVersion).Methods(http.MethodGet)
	if s.httpCfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.httpCfg.StaticDir)))
	}
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// checkOrigin accepts requests without an Origin header, any origin when the
// allow list is empty or contains "*", and otherwise only listed hosts.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.wsCfg.AllowedOrigins) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.wsCfg.AllowedOrigins {
		if allowed == "*" || allowed == u.Host {
			return true
		}
	}
	return false
}

// track registers a client session with Stop's wait group. It fails once
// Stop has begun.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	id := uuid.NewString()
	entity, err := s.relay.Connect(id)
	if err != nil {
		s.logger.Error("registering connection", zap.String("conn", id), zap.Error(err))
		_ = conn.Close()
		return
	}

	c := newClient(id, conn, entity, s.wsCfg, s.relay, s.logger)
	s.serveClient(c, r.RemoteAddr)
}

func (s *Server) serveClient(c *client, remoteAddr string) {
	start := time.Now()
	s.logger.Info("client connected",
		zap.String("conn", c.id),
		zap.String("remote_addr", remoteAddr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.quit:
			c.close()
		case <-ctx.Done():
		}
	}()

	go c.writePump()
	c.readPump(ctx)

	if err := s.relay.Disconnect(context.Background(), c.id); err != nil {
		s.logger.Debug("disconnect", zap.String("conn", c.id), zap.Error(err))
	}
	s.logger.Info("client disconnected",
		zap.String("conn", c.id),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Server) serveRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.relay.ListRooms(r.Context())
	if err != nil {
		s.logger.Error("listing rooms", zap.Error(err))
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serveVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe listens on the configured address and serves until Stop.
//
// Precondition: The server must not already be running.
// Postcondition: The listener is closed when this method returns.
func (s *Server) ListenAndServe() error {
	start := time.Now()

	lis, err := net.Listen("tcp", s.httpCfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpCfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.httpCfg.ReadTimeout,
		WriteTimeout: s.httpCfg.WriteTimeout,
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = lis.Close()
		return nil
	}
	s.srv = srv
	s.listener = lis
	s.mu.Unlock()

	s.logger.Info("http listener started",
		zap.String("addr", lis.Addr().String()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving http: %w", err)
	}
	return nil
}

// Stop refuses new WebSocket clients, closes the listener if one is
// running, drops every connected client and waits for their sessions to
// finish. Idempotent.
//
// Postcondition: All connections are closed and goroutines have exited.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	close(s.quit)
	srv := s.srv
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
	}
	s.wg.Wait()

	s.logger.Info("http listener stopped")
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
