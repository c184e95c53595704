// Package ws is the device bridge: phones or a browser-hosted simulator
// connect over WebSocket, send raw glasses events as JSON and receive the
// rendered display frames.
package ws

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	petname "github.com/dustinkirkland/golang-petname"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vovakirdan/glasschess/internal/app"
	"github.com/vovakirdan/glasschess/internal/chess/state"
	"github.com/vovakirdan/glasschess/internal/display"
	"github.com/vovakirdan/glasschess/internal/input"
)

// Message types sent to the client.
const (
	TypeHello = "hello"
	TypeFrame = "frame"
	TypeError = "error"
	TypeExit  = "exit"
)

// Message is every server to client message.
type Message struct {
	Type   string `json:"type"`
	Player string `json:"player,omitempty"`
	Phase  string `json:"phase,omitempty"`
	Text   string `json:"text,omitempty"`
	Saved  bool   `json:"saved,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Config tunes the bridge.
type Config struct {
	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration
	// OriginPatterns are the accepted cross-origin hosts. Empty means same
	// origin only.
	OriginPatterns []string
	Logger         *log.Logger
}

// Server is an http.Handler that upgrades to WebSocket and runs one game
// per connection.
type Server struct {
	cfg Config
	app *app.App
	log *log.Logger
}

// NewServer returns a bridge launching games from a.
func NewServer(cfg Config, a *app.App) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{cfg: cfg, app: a, log: logger.WithPrefix("bridge")}
}

// Handler mounts the bridge on /ws plus a plain-text index and a health
// check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("glasschess device bridge.\nConnect: ws://<host>/ws?player=<name>\n"))
	})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ServeHTTP runs one connection. The "player" query parameter selects the
// save slot; without it the player gets a random name.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.OriginPatterns})
	if err != nil {
		s.log.Warn("accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer c.CloseNow()

	player := r.URL.Query().Get("player")
	if player == "" {
		player = petname.Generate(2, "-")
	}
	logger := s.log.With("player", player)
	logger.Info("connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	exits := make(chan bool, 1)
	g := s.app.Launch(ctx, player, func(save bool) {
		select {
		case exits <- save:
		default:
		}
	})
	defer g.Close()

	changes := make(chan struct{}, 1)
	unsub := g.Session.Store().Subscribe(func(_, _ *state.GameState) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unsub()

	bad := make(chan error, 8)
	go s.readLoop(ctx, cancel, c, g, bad)

	err = s.writeLoop(ctx, c, g, player, changes, bad, exits)
	switch {
	case err == nil:
		logger.Info("disconnected")
	case errors.Is(err, context.Canceled), websocket.CloseStatus(err) != -1:
		logger.Info("disconnected", "reason", err)
	default:
		logger.Warn("connection failed", "err", err)
	}
}

// readLoop decodes client events until the connection fails. Undecodable
// payloads are reported on bad and otherwise ignored.
func (s *Server) readLoop(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, g *app.Game, bad chan<- error) {
	defer cancel()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		ev, err := input.Decode(data)
		if err != nil {
			select {
			case bad <- err:
			default:
			}
			continue
		}
		g.Session.HandleEvent(ev)
	}
}

// writeLoop owns every write on c. Frames equal to the last one sent are
// skipped.
func (s *Server) writeLoop(ctx context.Context, c *websocket.Conn, g *app.Game, player string,
	changes <-chan struct{}, bad <-chan error, exits <-chan bool,
) error {
	write := func(m Message) error {
		wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
		return wsjson.Write(wctx, c, m)
	}

	if err := write(Message{Type: TypeHello, Player: player}); err != nil {
		return err
	}
	var last display.Frame
	sendFrame := func() error {
		f := g.Frame()
		if f == last {
			return nil
		}
		last = f
		return write(Message{Type: TypeFrame, Phase: f.Phase, Text: f.Text})
	}
	if err := sendFrame(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-changes:
			if err := sendFrame(); err != nil {
				return err
			}

		case err := <-bad:
			if err := write(Message{Type: TypeError, Error: err.Error()}); err != nil {
				return err
			}

		case saved := <-exits:
			if err := sendFrame(); err != nil {
				return err
			}
			if err := write(Message{Type: TypeExit, Saved: saved}); err != nil {
				return err
			}
			return c.Close(websocket.StatusNormalClosure, "exit")
		}
	}
}
