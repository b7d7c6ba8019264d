// Package transport is the websocket connection handler: one goroutine
// pair per connection (read pump, write pump) feeding a bounded queue that
// the session's turn processor drains one message at a time. Throttling
// and the in-flight cap live here, not in the turn engine, since they are
// purely a property of how fast a client is allowed to talk, not of game
// rules.
package transport

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alexswiontek/dungeon-crawler/internal/character"
	"github.com/alexswiontek/dungeon-crawler/internal/config"
	"github.com/alexswiontek/dungeon-crawler/internal/delta"
	"github.com/alexswiontek/dungeon-crawler/internal/idgen"
	"github.com/alexswiontek/dungeon-crawler/internal/mapgen"
	"github.com/alexswiontek/dungeon-crawler/internal/session"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
	"github.com/alexswiontek/dungeon-crawler/internal/store"
	"github.com/alexswiontek/dungeon-crawler/internal/visibility"
)

const (
	maxInFlight  = 3
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// ClientMessage is one inbound envelope: a command and its payload.
type ClientMessage struct {
	Type   string `json:"type"`
	GameID string `json:"gameId,omitempty"`
	Dir    string `json:"dir,omitempty"`
	Name   string `json:"playerName,omitempty"`
	Char   string `json:"character,omitempty"`
	Ack    int    `json:"ack,omitempty"`
}

// ServerMessage is one outbound envelope: "init", "update", "enemy_tick",
// or "error".
type ServerMessage struct {
	Kind    string        `json:"kind"`
	GameID  string        `json:"gameId,omitempty"`
	State   *state.GameState `json:"state,omitempty"`
	Deltas  []delta.Delta `json:"deltas,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Handler upgrades HTTP connections to websockets and drives one
// connection's lifecycle against the session manager.
type Handler struct {
	upgrader websocket.Upgrader
	sessions *session.Manager
	store    store.CheckpointStore
	cfg      config.Config
	ids      *idgen.Generator
	log      *zap.Logger
}

// NewHandler builds a Handler. allowedOrigins empty means allow any origin
// (useful for local development); otherwise only listed origins pass.
func NewHandler(sessions *session.Manager, st store.CheckpointStore, cfg config.Config, log *zap.Logger) *Handler {
	h := &Handler{
		sessions: sessions,
		store:    st,
		cfg:      cfg,
		ids:      idgen.New("game"),
		log:      log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("upgrade failed", zap.Error(err))
		return
	}
	c := newConn(conn, h)
	go c.writePump()
	c.readPump()
}

// conn is one connection's pump pair plus its pending-message queue and
// throttle state.
type conn struct {
	id       string
	ws       *websocket.Conn
	handler  *Handler
	send     chan ServerMessage
	pending  chan ClientMessage
	sess     *session.Session
	inFlight int

	lastMove   time.Time
	lastAttack time.Time
}

func newConn(ws *websocket.Conn, h *Handler) *conn {
	return &conn{
		id:      h.ids.Next(),
		ws:      ws,
		handler: h,
		send:    make(chan ServerMessage, 16),
		pending: make(chan ClientMessage, h.cfg.MaxPendingQueue),
	}
}

func (c *conn) readPump() {
	defer c.close()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.processLoop()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.send <- ServerMessage{Kind: "error", Message: "malformed message"}
			continue
		}

		select {
		case c.pending <- msg:
		default:
			c.send <- ServerMessage{Kind: "error", Message: "too many pending commands"}
		}
	}
}

// processLoop drains pending one message at a time, applying throttles
// and the in-flight cap cooperatively: only one message is ever being
// resolved against the session at once.
func (c *conn) processLoop() {
	for msg := range c.pending {
		if c.inFlight >= maxInFlight {
			c.send <- ServerMessage{Kind: "error", Message: "too many unacknowledged commands"}
			continue
		}
		c.handle(msg)
	}
}

func (c *conn) handle(msg ClientMessage) {
	switch msg.Type {
	case "create_game":
		c.handleCreateGame(msg)
	case "resume_game":
		c.handleResumeGame(msg)
	case "move":
		c.handleThrottled(msg, c.handler.cfg.MoveThrottle, &c.lastMove, func(sess *session.Session) ([]delta.Delta, error) {
			return delta.Move(sess.GameState, msg.Dir, sess.Rng, sess.EnemyIDs, sess.ItemIDs)
		})
	case "attack":
		c.handleThrottled(msg, c.handler.cfg.AttackThrottle, &c.lastAttack, func(sess *session.Session) ([]delta.Delta, error) {
			return delta.Attack(sess.GameState, msg.Dir)
		})
	case "ranged_attack":
		c.handleThrottled(msg, c.handler.cfg.AttackThrottle, &c.lastAttack, func(sess *session.Session) ([]delta.Delta, error) {
			return delta.RangedAttack(sess.GameState)
		})
	case "descend":
		c.handleAction(func(sess *session.Session) ([]delta.Delta, error) {
			return delta.Descend(sess.GameState, sess.Rng, sess.EnemyIDs, sess.ItemIDs)
		})
	case "ack":
		c.Ack()
	default:
		c.send <- ServerMessage{Kind: "error", Message: "unknown message type: " + msg.Type}
	}
}

func (c *conn) handleCreateGame(msg ClientMessage) {
	characterKind := state.CharacterKind(msg.Char)
	if _, ok := character.Table[characterKind]; !ok {
		c.send <- ServerMessage{Kind: "error", Message: "unknown character"}
		return
	}

	seed := time.Now().UnixNano()
	rng := rand.New(rand.NewSource(seed))
	enemyIDs := idgen.New("enemy")
	itemIDs := idgen.New("item")

	result, err := mapgen.Generate(1, characterKind, rng, enemyIDs, itemIDs)
	if err != nil {
		c.send <- ServerMessage{Kind: "error", Message: "failed to generate dungeon"}
		return
	}

	player := character.NewPlayer(characterKind)
	player.X, player.Y = result.PlayerStart.X, result.PlayerStart.Y

	gs := &state.GameState{
		ID:         c.handler.ids.Next(),
		PlayerName: msg.Name,
		Player:     player,
		Map:        result.Map,
		Fog:        state.NewFog(result.Map.Width, result.Map.Height),
		Enemies:    result.Enemies,
		Items:      result.Items,
		Floor:      1,
		Status:     state.StatusActive,
	}
	visibility.Reveal(gs.Fog, gs.Map, gs.Player.X, gs.Player.Y)

	c.sess = c.handler.sessions.Register(gs, rng, enemyIDs, itemIDs, c.id)
	c.send <- ServerMessage{Kind: "init", GameID: gs.ID, State: gs}
}

func (c *conn) handleResumeGame(msg ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sess, err := c.handler.sessions.Resume(ctx, msg.GameID, c.id)
	if err != nil {
		c.send <- ServerMessage{Kind: "error", Message: "could not resume game: " + err.Error()}
		return
	}
	c.sess = sess
	sess.Lock()
	gs := sess.GameState
	sess.Unlock()
	c.send <- ServerMessage{Kind: "init", GameID: gs.ID, State: gs}
}

func (c *conn) handleThrottled(msg ClientMessage, throttle time.Duration, last *time.Time, fn func(*session.Session) ([]delta.Delta, error)) {
	now := time.Now()
	if now.Sub(*last) < throttle {
		return
	}
	*last = now
	c.handleAction(fn)
}

func (c *conn) handleAction(fn func(*session.Session) ([]delta.Delta, error)) {
	if c.sess == nil {
		c.send <- ServerMessage{Kind: "error", Message: "no active game"}
		return
	}

	c.sess.Lock()
	deltas, err := fn(c.sess)
	gameID := c.sess.GameState.ID
	status := c.sess.GameState.Status
	c.sess.Touch()
	c.sess.Unlock()

	if err != nil {
		c.send <- ServerMessage{Kind: "error", Message: err.Error()}
		return
	}

	c.inFlight++
	c.send <- ServerMessage{Kind: "update", GameID: gameID, Deltas: deltas}

	if status != state.StatusActive {
		c.checkpointAndRecordScore(gameID)
	}
}

func (c *conn) checkpointAndRecordScore(gameID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.sess.Lock()
	gs := c.sess.GameState
	row := store.LeaderboardRow{PlayerName: gs.PlayerName, Score: gs.Score, Floor: gs.Floor}
	c.sess.Unlock()

	if err := c.handler.store.InsertLeaderboardRow(ctx, row); err != nil {
		c.handler.log.Error("leaderboard insert failed", zap.String("gameId", gameID), zap.Error(err))
	}
	if err := c.handler.sessions.Unregister(ctx, gameID); err != nil {
		c.handler.log.Error("terminal checkpoint failed", zap.String("gameId", gameID), zap.Error(err))
	}
}

// Ack records that the client acknowledged one previously sent update,
// freeing a slot in the in-flight budget.
func (c *conn) Ack() {
	if c.inFlight > 0 {
		c.inFlight--
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				c.handler.log.Error("marshal outbound message failed", zap.Error(err))
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *conn) close() {
	if c.sess != nil {
		gameID := c.sess.GameState.ID
		c.handler.sessions.Pause(gameID)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.handler.sessions.Checkpoint(ctx, gameID); err != nil {
			c.handler.log.Error("disconnect checkpoint failed", zap.String("gameId", gameID), zap.Error(err))
		}
		cancel()
	}
	close(c.pending)
}
