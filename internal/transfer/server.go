package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

// Config holds server configuration
type Config struct {
	ListenAddr     string
	Path           string
	MaxMessageSize int64
	// ShutdownTimeout bounds the graceful shutdown once the run context ends.
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      "127.0.0.1:7070",
		Path:            "/snapshot",
		MaxMessageSize:  16 << 20, // 16MB
		ShutdownTimeout: 5 * time.Second,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Server struct {
	config Config
	source Source
	logger log.Log
}

func NewServer(config Config, source Source, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Server{
		config: config,
		source: source,
		logger: logger.With(log.String("component", "transfer")),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)
	return mux
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server listening", log.String("addr", ln.Addr().String()), log.String("path", s.config.Path))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		s.logger.Info("Stopping server")
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection", log.Error(err))
		return
	}
	defer conn.Close()
	if s.config.MaxMessageSize > 0 {
		conn.SetReadLimit(s.config.MaxMessageSize)
	}

	clientLogger := s.logger.With(log.String("remote_addr", conn.RemoteAddr().String()))
	clientLogger.Debug("Client connected")
	defer clientLogger.Debug("Client disconnected")

	for {
		var req Request
		if err = conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				clientLogger.Warn("Failed to read request", log.Error(err))
			}
			return
		}

		frame := s.reply(r.Context(), req)
		if frame.Error != "" {
			clientLogger.Warn("Request failed", log.String("request_id", req.ID), log.String("error", frame.Error))
		}
		if err = conn.WriteJSON(frame); err != nil {
			clientLogger.Warn("Failed to write frame", log.Error(err))
			return
		}
	}
}

func (s *Server) reply(ctx context.Context, req Request) Frame {
	frame := Frame{ID: req.ID}
	if req.Action != ActionSnapshot {
		frame.Error = fmt.Sprintf("%v: %q", ErrUnknownAction, req.Action)
		return frame
	}

	data, err := s.source.Snapshot(ctx)
	if err != nil {
		frame.Error = err.Error()
		return frame
	}
	doc, err := snapshot.ParseDocument(data)
	if err != nil {
		frame.Error = err.Error()
		return frame
	}
	if frame.Fingerprint, err = doc.Fingerprint(); err != nil {
		frame.Error = err.Error()
		return frame
	}
	if frame.Document, err = doc.MarshalJSON(); err != nil {
		frame.Error = err.Error()
		frame.Fingerprint = 0
		return frame
	}
	s.logger.Debug("Snapshot sent",
		log.String("request_id", req.ID),
		log.Uint64("fingerprint", frame.Fingerprint),
		log.Int("bytes", len(frame.Document)))
	return frame
}
