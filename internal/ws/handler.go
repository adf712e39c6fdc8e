package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"energy_profile/internal/agent"
	"energy_profile/internal/llm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Runner answers one chat turn. *agent.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, history []llm.Message, prompt string, obs agent.Observer) (*agent.Result, error)
}

// Handler upgrades connections and routes chat messages to the runner.
type Handler struct {
	hub    *Hub
	runner Runner
	tools  []llm.ToolDefinition
	bridge *Bridge
}

func NewHandler(hub *Hub, runner Runner, tools []llm.ToolDefinition) *Handler {
	return &Handler{hub: hub, runner: runner, tools: tools, bridge: NewBridge(hub)}
}

// session is the per-connection conversation state.
type session struct {
	mu      sync.Mutex
	busy    bool
	history []llm.Message
	// gen is bumped by chat:reset so a turn started before the reset does
	// not write its history back.
	gen int
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Warn("WebSocket upgrade error", "err", err)
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.sendSessionReady(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.readPump(ctx, client)
}

func (h *Handler) readPump(ctx context.Context, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	sess := &session{}
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.hub.logger.Warn("WebSocket read error", "err", err)
			}
			return
		}

		h.handleMessage(ctx, c, sess, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *Client, sess *session, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.sendError(c, "invalid message: "+err.Error())
		return
	}

	switch env.Type {
	case TypeChatMessage:
		var p ChatMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.sendError(c, "invalid chat:message payload: "+err.Error())
			return
		}
		text := strings.TrimSpace(p.Text)
		if text == "" {
			h.sendError(c, "message text must not be empty")
			return
		}

		sess.mu.Lock()
		if sess.busy {
			sess.mu.Unlock()
			h.sendError(c, "still working on the previous message")
			return
		}
		sess.busy = true
		history := sess.history
		gen := sess.gen
		sess.mu.Unlock()

		go h.runTurn(ctx, c, sess, gen, history, text)

	case TypeChatReset:
		sess.mu.Lock()
		sess.history = nil
		sess.gen++
		sess.mu.Unlock()

	default:
		h.sendError(c, "unknown message type: "+env.Type)
	}
}

func (h *Handler) runTurn(ctx context.Context, c *Client, sess *session, gen int, history []llm.Message, text string) {
	res, err := h.runner.Run(ctx, history, text, h.bridge)

	sess.mu.Lock()
	sess.busy = false
	if err == nil && sess.gen == gen {
		sess.history = res.Messages
	}
	sess.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.hub.logger.Warn("chat turn failed", "err", err)
		h.sendError(c, err.Error())
		return
	}

	msg, err := NewEnvelope(TypeChatReply, ChatReplyPayload{Text: res.Reply, Steps: res.Steps})
	if err != nil {
		h.hub.logger.Error("marshaling chat reply", "err", err)
		return
	}
	h.hub.Send(c, msg)
}

func (h *Handler) sendError(c *Client, message string) {
	msg, err := NewEnvelope(TypeChatError, ChatErrorPayload{Message: message})
	if err != nil {
		return
	}
	h.hub.Send(c, msg)
}

func (h *Handler) sendSessionReady(c *Client) {
	infos := make([]ToolInfo, 0, len(h.tools))
	for _, t := range h.tools {
		infos = append(infos, ToolInfo{Name: t.Name, Description: t.Description})
	}
	msg, err := NewEnvelope(TypeSessionReady, SessionReadyPayload{Tools: infos})
	if err != nil {
		return
	}
	h.hub.Send(c, msg)
}
