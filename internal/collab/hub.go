package collab

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/typeid"
)

// Loader fetches the persisted plan of a project when its room opens.
type Loader func(projectID string) (*document.Plan, error)

// Saver persists the plan of a room that has unsaved batches.
type Saver func(projectID string, plan *document.Plan) error

type Room struct {
	projectID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	doc       *DocumentState
	savedSeq  atomic.Int64

	// seqMu orders sequenced output: every client sees doc.sync, acks and
	// broadcasts in server sequence order.
	seqMu sync.Mutex
}

func NewRoom(projectID string, plan *document.Plan) *Room {
	return &Room{
		projectID: projectID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
		doc:       NewDocumentState(plan),
	}
}

// Dirty reports whether batches were applied since the last save.
func (r *Room) Dirty() bool {
	return r.doc.ServerSeq() != r.savedSeq.Load()
}

type Hub struct {
	mu           sync.RWMutex
	rooms        map[string]*Room // projectID -> room
	register     chan *Client
	unregister   chan *Client
	done         chan struct{}
	stopped      chan struct{}
	stopOnce     sync.Once
	load         Loader
	save         Saver
	saveInterval time.Duration
	metrics      *Metrics
	logger       *slog.Logger
}

type HubOption func(*Hub)

// WithSaveInterval sets how often dirty rooms are saved while clients are
// connected. Zero disables periodic saves.
func WithSaveInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		h.saveInterval = d
	}
}

func WithMetrics(m *Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(load Loader, save Saver, opts ...HubOption) *Hub {
	h := &Hub{
		rooms:        make(map[string]*Room),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		load:         load,
		save:         save,
		saveInterval: 30 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics(nil)
	}
	return h
}

func (h *Hub) Run() {
	defer close(h.stopped)

	var tick <-chan time.Time
	if h.saveInterval > 0 {
		ticker := time.NewTicker(h.saveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-tick:
			h.saveAll()
		case <-h.done:
			h.saveAll()
			return
		}
	}
}

// Stop ends Run after saving every dirty room. It blocks until Run returns.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
	<-h.stopped
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Room returns the open room of a project.
func (h *Hub) Room(projectID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[projectID]
	return r, ok
}

func (h *Hub) openRoom(projectID string) *Room {
	var plan *document.Plan
	if h.load != nil {
		p, err := h.load(projectID)
		if err != nil {
			h.logger.Warn("load plan, starting empty", "project", projectID, "error", err)
		} else {
			plan = p
		}
	}
	if plan == nil {
		plan = document.NewEmptyPlan(projectID, "Untitled", typeid.Layer.New())
	}
	return NewRoom(projectID, plan)
}

// roomFor returns the open room of a project, opening it if needed. The plan
// is loaded without holding h.mu.
func (h *Hub) roomFor(projectID string) *Room {
	if room, ok := h.Room(projectID); ok {
		return room
	}
	fresh := h.openRoom(projectID)

	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[projectID]; ok {
		return room
	}
	h.rooms[projectID] = fresh
	h.metrics.Rooms.Inc()
	return fresh
}

func (h *Hub) addClient(client *Client) {
	room := h.roomFor(client.ProjectID)

	room.seqMu.Lock()
	h.mu.Lock()
	room.clients[client.ClientID] = client
	h.mu.Unlock()
	h.metrics.Clients.Inc()

	plan, seq := room.doc.Snapshot()
	client.Send(newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID, ServerSeq: seq}))
	client.Send(newMessage(TypeDocSync, DocSyncPayload{Plan: plan, ServerSeq: seq}))
	room.seqMu.Unlock()

	// Send current presence state to new client
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.ProjectID, joinMsg, client.ClientID)

	h.logger.Info("client joined", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Forget(client.ClientID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.ProjectID)
		h.metrics.Rooms.Dec()
	}
	h.mu.Unlock()
	h.metrics.Clients.Dec()

	if empty {
		h.saveRoom(room)
		h.logger.Info("client left", "user", client.UserID, "project", client.ProjectID)
		return
	}

	// Broadcast leave to remaining clients
	leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
	leaveMsg.UserID = client.UserID
	h.broadcastToRoom(client.ProjectID, leaveMsg, "")

	h.logger.Info("client left", "user", client.UserID, "project", client.ProjectID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleSubmit(sender, msg)
	case TypeDocRequest:
		h.handleDocRequest(sender)
	default:
		h.logger.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.Send(newMessage(TypeError, ErrorPayload{Message: "unknown message type: " + msg.Type}))
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		h.logger.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.Room(sender.ProjectID)
	if !ok {
		return
	}

	room.presence.Set(sender.ClientID, &presence)

	// Broadcast to other clients in room
	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.ProjectID, outMsg, sender.ClientID)
}

// handleSubmit applies a client's batch to the room plan, acknowledges it to
// the sender and forwards it to everyone else.
func (h *Hub) handleSubmit(sender *Client, msg *Message) {
	var payload BatchSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.logger.Warn("invalid batch payload", "error", err, "user", sender.UserID)
		sender.Send(newMessage(TypeOpNack, BatchNackPayload{Reason: "invalid payload"}))
		return
	}

	room, ok := h.Room(sender.ProjectID)
	if !ok {
		return
	}

	room.seqMu.Lock()
	defer room.seqMu.Unlock()

	b := payload.Batch
	seq, err := room.doc.ApplyBatch(b)
	h.metrics.Batches.WithLabelValues(result(err)).Inc()
	if err != nil {
		h.logger.Debug("batch rejected", "batch", b.ID, "user", sender.UserID, "error", err)
		sender.Send(newMessage(TypeOpNack, BatchNackPayload{BatchID: b.ID, Reason: err.Error()}))
		return
	}
	h.metrics.BatchOps.Observe(float64(len(b.Operations)))

	ack := newMessage(TypeOpAck, BatchAckPayload{
		BatchID:         b.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
	})
	ack.Seq = seq
	sender.Send(ack)

	out := newMessage(TypeOpBroadcast, BatchBroadcastPayload{Batch: b, UserID: sender.UserID, ServerSeq: seq})
	out.UserID = sender.UserID
	out.Seq = seq
	h.broadcastToRoom(sender.ProjectID, out, sender.ClientID)
}

// handleDocRequest resends the room plan to a client whose replica diverged.
func (h *Hub) handleDocRequest(sender *Client) {
	room, ok := h.Room(sender.ProjectID)
	if !ok {
		return
	}
	room.seqMu.Lock()
	defer room.seqMu.Unlock()
	plan, seq := room.doc.Snapshot()
	sender.Send(newMessage(TypeDocSync, DocSyncPayload{Plan: plan, ServerSeq: seq}))
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) saveAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		h.saveRoom(r)
	}
}

func (h *Hub) saveRoom(room *Room) {
	if h.save == nil || !room.Dirty() {
		return
	}
	plan, seq := room.doc.Snapshot()
	err := h.save(room.projectID, plan)
	h.metrics.Saves.WithLabelValues(result(err)).Inc()
	if err != nil {
		h.logger.Error("save plan", "project", room.projectID, "error", err)
		return
	}
	room.savedSeq.Store(seq)
	h.logger.Info("plan saved", "project", room.projectID, "seq", seq)
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
		data = []byte("null")
	}
	return &Message{Type: typ, Payload: data}
}
