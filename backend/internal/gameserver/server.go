package gameserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/xcrap/micromachines/backend/internal/config"
	"github.com/xcrap/micromachines/backend/internal/shared/types"
	"github.com/xcrap/micromachines/backend/internal/simulation"
	"github.com/xcrap/micromachines/backend/internal/telemetry"
	"github.com/xcrap/micromachines/backend/internal/terrain"
)

const (
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 20 * time.Second
	sendBuffer   = 64
)

// session is one websocket connection driving one car.
type session struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	world   *simulation.World
	done    chan struct{}
	stopped chan struct{}
}

// Server hosts single-car sessions on a shared generated map.
type Server struct {
	log       zerolog.Logger
	cfg       config.ServerConfig
	tuning    simulation.Tuning
	world     *terrain.Map
	mapDesc   types.MapDescription
	telemetry *telemetry.Store
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*session
}

// New builds a server for cfg on the already generated map m.
func New(cfg config.Config, m *terrain.Map, store *telemetry.Store, log zerolog.Logger) *Server {
	return &Server{
		log:       log,
		cfg:       cfg.Server,
		tuning:    cfg.Tuning,
		world:     m,
		mapDesc:   m.Describe(),
		telemetry: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessions: make(map[string]*session),
	}
}

// Handler serves /health, /ws, /v1/map and the telemetry endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/v1/map", s.handleMap)
	s.telemetry.Register(mux)
	return telemetry.WithCORS(mux)
}

// Sessions reports how many cars are currently driving.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	telemetry.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": s.Sessions()})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		telemetry.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed"})
		return
	}
	telemetry.WriteJSON(w, http.StatusOK, s.mapDesc)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	id := uuid.NewString()
	world, err := simulation.NewWorld(id, s.world, s.tuning, s.telemetry, s.log)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", id).Msg("spawn failed")
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "spawn_failed"))
		_ = conn.Close()
		return
	}

	sess := &session{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		world:   world,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	s.register(sess)
	s.log.Info().Str("session_id", id).Str("remote", r.RemoteAddr).Msg("client connected")

	s.sendWelcome(sess)
	go s.writePump(sess)
	go s.run(sess)
	s.readPump(sess)
}

func (s *Server) readPump(c *session) {
	defer s.close(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info().Str("session_id", c.id).Msg("client disconnected")
				return
			}
			s.log.Warn().Err(err).Str("session_id", c.id).Msg("read error")
			return
		}

		var in types.ClientEnvelope
		if err := json.Unmarshal(msg, &in); err != nil {
			s.sendError(c, "bad_payload")
			continue
		}

		switch in.Type {
		case "hello":
			s.sendWelcome(c)
		case "input":
			if in.Input == nil {
				s.sendError(c, "missing_input")
				continue
			}
			c.world.ApplyInput(*in.Input)
		case "reset":
			c.world.Reset()
		case "ping":
			s.enqueue(c, types.ServerEnvelope{Type: "pong", ServerMS: time.Now().UTC().UnixMilli()})
		default:
			s.sendError(c, "unsupported_message_type")
		}
	}
}

func (s *Server) writePump(c *session) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				return
			}
		}
	}
}

// run drives the simulation and replication clocks until the session ends.
// Frame dt comes from the wall clock; the controller clamps long frames.
func (s *Server) run(c *session) {
	defer close(c.stopped)

	sim := time.NewTicker(time.Second / time.Duration(s.cfg.TickRate))
	defer sim.Stop()
	repl := time.NewTicker(time.Second / time.Duration(s.cfg.ReplicationRate))
	defer repl.Stop()

	last := time.Now()
	for {
		select {
		case <-c.done:
			return
		case now := <-sim.C:
			c.world.Tick(now.Sub(last).Seconds())
			last = now
		case <-repl.C:
			state := c.world.Snapshot()
			s.enqueue(c, types.ServerEnvelope{
				Type:     "state",
				Tick:     state.Tick,
				State:    &state,
				ServerMS: time.Now().UTC().UnixMilli(),
				AckSeq:   c.world.LastInputSequence(),
			})
		}
	}
}

func (s *Server) register(c *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[c.id] = c
}

// close stops the clocks before the send channel is closed so no loop can
// write to it afterwards.
func (s *Server) close(c *session) {
	close(c.done)
	<-c.stopped

	s.mu.Lock()
	delete(s.sessions, c.id)
	s.mu.Unlock()

	close(c.send)
	_ = c.conn.Close()
	if err := c.world.Dispose(); err != nil {
		s.log.Warn().Err(err).Str("session_id", c.id).Msg("dispose failed")
	}
}

func (s *Server) sendWelcome(c *session) {
	state := c.world.Snapshot()
	s.enqueue(c, types.ServerEnvelope{
		Type:     "welcome",
		State:    &state,
		Map:      &s.mapDesc,
		ServerMS: time.Now().UTC().UnixMilli(),
		Message:  "connected",
	})
}

func (s *Server) sendError(c *session, message string) {
	s.enqueue(c, types.ServerEnvelope{Type: "error", Message: message})
}

// enqueue drops the message when the client is not keeping up.
func (s *Server) enqueue(c *session, env types.ServerEnvelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		s.log.Error().Err(err).Str("type", env.Type).Msg("marshal failed")
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
