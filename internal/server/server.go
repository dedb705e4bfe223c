// Package server streams live views over websockets. Each connection owns
// one view with its own render loop; frames are sent as WebP images and
// hover hits as JSON.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"welltwin-renderer/internal/api"
	"welltwin-renderer/internal/loop"
	"welltwin-renderer/internal/view"
)

const writeWait = 5 * time.Second

// web holds the browser client served at /.
//
//go:embed web
var web embed.FS

// Options configures a Server.
type Options struct {
	// View is the template for every session's view; Kind comes from the
	// ?view= query parameter.
	View   view.Config
	FPS    int
	API    *api.Client
	Logger *zap.Logger
}

type Server struct {
	opts     Options
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
	wg       sync.WaitGroup
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		opts: opts,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP routes: the browser client at /, /ws for
// viewers and /healthz.
func (s *Server) Handler() http.Handler {
	site, err := fs.Sub(web, "web")
	if err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServerFS(site))
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Sessions returns the number of connected viewers.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Reload makes every session fetch its datasets again.
func (s *Server) Reload(ctx context.Context) {
	s.mu.Lock()
	list := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.mu.Unlock()

	s.log.Info("reloading datasets", zap.Int("sessions", len(list)))
	for _, sess := range list {
		sess.load(ctx)
	}
}

// Close disconnects every viewer and waits for their sessions to end.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	for _, sess := range s.sessions {
		sess.conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	kind, err := view.ParseKind(r.URL.Query().Get("view"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "server closing", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	log := s.log.With(zap.String("session", id))

	cfg := s.opts.View
	cfg.Kind = kind
	cfg.Logger = log

	ctx, cancel := context.WithCancel(r.Context())
	sess := &session{
		id:     id,
		conn:   conn,
		log:    log,
		view:   view.New(cfg),
		api:    s.opts.API,
		ctx:    ctx,
		events: &pointerEvents{},
	}

	s.mu.Lock()
	s.sessions[id] = sess
	if s.closed {
		conn.Close()
	}
	s.mu.Unlock()
	log.Info("viewer connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		sess.view.Dispose()
		cancel()
		sess.tasks.Wait()
		conn.Close()
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		log.Info("viewer disconnected", zap.Uint64("frames", sess.view.Frames()))
	}()

	sess.goTask(func() { sess.load(ctx) })

	if err := sess.view.Mount(loop.NewTickerScheduler(s.opts.FPS), sess, sess.events); err != nil {
		log.Error("mount failed", zap.Error(err))
		return
	}
	sess.readLoop()
}

// pointerEvents forwards pointer messages from the socket to the view's
// registered listener.
type pointerEvents struct {
	mu sync.Mutex
	fn func(loop.PointerEvent)
}

func (p *pointerEvents) OnPointer(fn func(loop.PointerEvent)) (func(), error) {
	p.mu.Lock()
	p.fn = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		p.fn = nil
		p.mu.Unlock()
	}, nil
}

func (p *pointerEvents) emit(ev loop.PointerEvent) {
	p.mu.Lock()
	fn := p.fn
	p.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

type session struct {
	id     string
	conn   *websocket.Conn
	log    *zap.Logger
	view   *view.View
	api    *api.Client
	ctx    context.Context
	events *pointerEvents

	writeMu sync.Mutex
	tasks   sync.WaitGroup
}

func (s *session) goTask(fn func()) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		fn()
	}()
}

func (s *session) load(ctx context.Context) {
	if err := s.view.Load(ctx); err != nil {
		s.sendJSON(errorMessage{Type: "error", Error: err.Error()})
	}
	s.sendLabels()
}

// sendLabels tells the viewer the label choices and the active filter.
func (s *session) sendLabels() {
	labels := []string{}
	if s.view.Kind() == view.Voxels {
		labels = s.view.Labels()
	}
	s.sendJSON(labelsMessage{Type: "labels", Labels: labels, Filter: s.view.Filter()})
}

func (s *session) readLoop() {
	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		s.handle(msg)
	}
}

func (s *session) handle(msg clientMessage) {
	switch msg.Type {
	case "pointer":
		s.events.emit(loop.PointerEvent{X: msg.X, Y: msg.Y, Inside: msg.Inside})
	case "orbit":
		s.view.Orbit(msg.DTheta, msg.DPhi)
	case "zoom":
		s.view.Zoom(msg.Factor)
	case "filter":
		if len(msg.Filter) == 0 {
			return
		}
		f := s.view.Filter()
		if err := json.Unmarshal(msg.Filter, &f); err != nil {
			s.sendJSON(errorMessage{Type: "error", Error: "bad filter: " + err.Error()})
			return
		}
		s.view.SetFilter(f)
		s.sendLabels()
	case "optimize":
		if s.api == nil {
			s.sendJSON(errorMessage{Type: "error", Error: "path optimization is not configured"})
			return
		}
		lat, lon := msg.Lat, msg.Lon
		s.goTask(func() {
			path, err := s.api.OptimizePath(s.ctx, lat, lon)
			if err != nil {
				s.log.Warn("optimize path failed", zap.Error(err))
				s.sendJSON(errorMessage{Type: "error", Error: err.Error()})
				return
			}
			s.view.SetPath(path)
			s.sendJSON(pathMessage{Type: "path", Path: path})
		})
	default:
		s.log.Debug("ignoring message", zap.String("type", msg.Type))
	}
}

func (s *session) sendJSON(v any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(v); err != nil {
		s.log.Debug("websocket write failed", zap.Error(err))
	}
}

// Acquire and Release satisfy loop.Surface; the socket itself is owned by
// the handler.
func (s *session) Acquire() error { return nil }
func (s *session) Release()       {}

// Present sends a rendered frame and any hover change to the viewer.
func (s *session) Present(f view.Frame) error {
	if f.Image != nil {
		var buf bytes.Buffer
		if err := nativewebp.Encode(&buf, f.Image, nil); err != nil {
			return err
		}
		s.writeMu.Lock()
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := s.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
		s.writeMu.Unlock()
		if err != nil {
			return loop.ErrStop
		}
	}
	if f.HoverChanged {
		s.sendJSON(hoverMessage{Type: "hover", Hit: f.Hover})
	}
	return nil
}
