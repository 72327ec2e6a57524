package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"craftguard/internal/protocol"
	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/crafting"
	"craftguard/internal/sim/grid"
	"craftguard/internal/sim/session"
	"craftguard/internal/sim/tuning"
)

type Config struct {
	Validator *crafting.Validator
	Catalogs  *catalogs.Catalogs
	Tuning    tuning.Tuning

	Auditor  session.Auditor
	Rewarder session.Rewarder
	Executor session.Executor
}

type client struct {
	id   string
	sess *session.Session
	out  chan []byte
}

// Server speaks the crafting protocol over websocket text frames. It is the
// session.Notifier for every session it creates.
type Server struct {
	cfg Config
	log *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

func NewServer(cfg Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		cfg: cfg,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[string]*client{},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c := s.handshake(conn)
		if c == nil {
			return
		}
		defer s.detach(c.id)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.dispatch(ctx, c, msg)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *client, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		s.sendError(ctx, c, protocol.ErrProtoBadRequest, "malformed json")
		return
	}
	if base.ProtocolVersion != protocol.Version {
		s.sendError(ctx, c, protocol.ErrProtoVersion, "bad protocol_version")
		return
	}
	if err := protocol.ValidateInbound(base.Type, msg); err != nil {
		s.sendError(ctx, c, protocol.ErrProtoBadRequest, err.Error())
		return
	}

	switch base.Type {
	case protocol.TypeGridSet:
		var m protocol.GridSetMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(ctx, c, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		if err := c.sess.SetGridItem(m.Slot, m.Item); err != nil {
			s.sendError(ctx, c, protocol.ErrProtoBadRequest, err.Error())
		}

	case protocol.TypeCraft:
		var m protocol.CraftMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(ctx, c, protocol.ErrProtoBadRequest, err.Error())
			return
		}
		out, err := c.sess.Submit(ctx, m.TxID, m.Actions)
		res := protocol.CraftResultMsg{
			Type:            protocol.TypeCraftResult,
			ProtocolVersion: protocol.Version,
			TxID:            out.TxID,
			Accepted:        out.Accepted,
			RecipeID:        out.RecipeID,
			Iterations:      out.Iterations,
			Achievements:    out.Achievements,
		}
		switch {
		case err != nil:
			s.log.Printf("craft fault player=%s: %v", c.id, err)
			res.Code = protocol.ErrInternal
			res.Message = "internal error"
		case !out.Accepted:
			res.Code = protocol.CodeForReason(out.Reason)
			res.Message = out.Detail
		}
		s.send(ctx, c, res)

	default:
		s.sendError(ctx, c, protocol.ErrProtoBadRequest, "unexpected "+base.Type)
	}
}

func (s *Server) handshake(conn *websocket.Conn) *client {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}
	if err := protocol.ValidateInbound(protocol.TypeHello, msg); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}

	width := s.cfg.Tuning.GridWidth
	if hello.Bench {
		width = grid.BenchWidth
	}
	maxQ := s.cfg.Tuning.MaxQueue
	if maxQ <= 0 {
		maxQ = 16
	}

	c := &client{id: uuid.Must(uuid.NewV7()).String(), out: make(chan []byte, maxQ)}
	opts := []session.Option{session.WithNotifier(s), session.WithLogger(s.log)}
	if s.cfg.Auditor != nil {
		opts = append(opts, session.WithAuditor(s.cfg.Auditor))
	}
	if s.cfg.Rewarder != nil {
		opts = append(opts, session.WithRewarder(s.cfg.Rewarder))
	}
	if s.cfg.Executor != nil {
		opts = append(opts, session.WithExecutor(s.cfg.Executor))
	}
	c.sess = session.New(session.Config{
		PlayerID:       c.id,
		GridWidth:      width,
		InventorySlots: s.cfg.Tuning.InventorySlots,
	}, s.cfg.Validator, opts...)

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        c.id,
		GridWidth:       width,
		MaxIterations:   s.cfg.Validator.MaxIterations(),
	}
	if s.cfg.Catalogs != nil {
		welcome.Catalogs = protocol.CatalogDigests{
			ItemPalette:   protocol.DigestRef{Digest: s.cfg.Catalogs.Items.PaletteDigest, Count: len(s.cfg.Catalogs.Items.Palette)},
			RecipesDigest: s.cfg.Catalogs.Recipes.Digest,
		}
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.log.Printf("join player=%s name=%q grid_width=%d", c.id, hello.PlayerName, width)
	return c
}

func (s *Server) detach(id string) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
	s.log.Printf("leave player=%s", id)
}

// ForceClose queues a CONTAINER_CLOSE for the player. It never blocks; a full
// queue drops the frame.
func (s *Server) ForceClose(playerID string) {
	s.mu.Lock()
	c := s.clients[playerID]
	s.mu.Unlock()
	if c == nil {
		return
	}
	b, err := json.Marshal(protocol.ContainerCloseMsg{
		Type:            protocol.TypeContainerClose,
		ProtocolVersion: protocol.Version,
		WindowID:        -1,
	})
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default:
	}
}

func (s *Server) send(ctx context.Context, c *client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	case <-ctx.Done():
	}
}

func (s *Server) sendError(ctx context.Context, c *client, code, message string) {
	s.send(ctx, c, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
