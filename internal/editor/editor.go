// Package editor is the client side of a drafting session: it owns the
// local plan replica, runs the engine against it and exchanges batches with
// the collaboration server.
package editor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/inamate/drafting/internal/collab"
	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/engine"
	"github.com/inamate/drafting/internal/viewport"
)

// Editor applies local edits optimistically and queues them for the server.
// The replica is always the confirmed plan with the unacknowledged local
// batches replayed on top, so a remote batch or a rejection rebuilds it.
type Editor struct {
	mu        sync.Mutex
	projectID string
	doc       *collab.DocumentState
	base      *collab.DocumentState
	pending   []collab.Batch
	rec       *collab.Recorder
	eng       *engine.Engine
	state     engine.State
	outbox    []collab.Batch
	needSync  bool
	serverSeq int64
	logger    *slog.Logger
}

type Option func(*Editor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

func New(plan *document.Plan, settings engine.Settings, opts ...Option) *Editor {
	e := &Editor{
		projectID: plan.Project.ID,
		doc:       collab.NewDocumentState(plan),
		base:      collab.NewDocumentState(plan.Clone()),
		state:     engine.NewState(viewport.New(1)),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rec = collab.NewRecorder(e.doc,
		collab.WithRecorderLogger(e.logger),
		collab.WithSubmit(e.submitLocal),
	)
	e.eng = engine.New(e.rec, settings, engine.WithLogger(e.logger))
	return e
}

// reset replaces the replica and drops gestures that referred to the old
// one. Callers hold mu.
func (e *Editor) reset(plan *document.Plan, serverSeq int64) {
	e.projectID = plan.Project.ID
	e.doc.Reset(plan, serverSeq)
	e.base.Reset(plan.Clone(), serverSeq)
	e.serverSeq = serverSeq
	e.pending = nil
	e.outbox = nil
	e.needSync = false
	e.state = e.state.Discard()
	e.state.Hover = nil
	e.state.Selection = e.state.Selection.Prune(plan)
}

// submitLocal applies a batch to the replica and queues it for the server.
func (e *Editor) submitLocal(b collab.Batch) (int64, error) {
	seq, err := e.doc.ApplyBatch(b)
	if err != nil {
		return 0, err
	}
	e.pending = append(e.pending, b)
	e.outbox = append(e.outbox, b)
	return seq, nil
}

// rebase rebuilds the replica from the confirmed plan and replays the
// pending batches. A pending batch that no longer applies is dropped.
// Callers hold mu.
func (e *Editor) rebase() {
	e.doc.Reset(e.base.Plan(), e.serverSeq)
	kept := e.pending[:0]
	for _, b := range e.pending {
		if _, err := e.doc.ApplyBatch(b); err != nil {
			e.logger.Warn("dropping local batch after rebase", "batch", b.ID, "error", err)
			e.outbox = slices.DeleteFunc(e.outbox, func(o collab.Batch) bool { return o.ID == b.ID })
			continue
		}
		kept = append(kept, b)
	}
	e.pending = kept
	e.state.Selection = e.state.Selection.Prune(e.doc.Plan())
}

// settle removes a batch from the pending list. It reports whether the
// batch was one of ours.
func (e *Editor) settle(batchID string) (collab.Batch, bool) {
	i := slices.IndexFunc(e.pending, func(b collab.Batch) bool { return b.ID == batchID })
	if i < 0 {
		return collab.Batch{}, false
	}
	b := e.pending[i]
	e.pending = slices.Delete(e.pending, i, i+1)
	return b, true
}

// Load replaces the document, discarding any unsent edits.
func (e *Editor) Load(plan *document.Plan) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(plan, 0)
}

// Handle runs one input event through the engine.
func (e *Editor) Handle(ev engine.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = e.eng.Handle(e.doc.Plan(), e.state, ev)
}

// Plan returns a copy of the replica.
func (e *Editor) Plan() *document.Plan {
	return e.doc.Plan()
}

func (e *Editor) State() engine.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Settings() engine.Settings {
	return e.eng.Settings()
}

func (e *Editor) SetSettings(s engine.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eng.SetSettings(s)
}

// Overlay returns the draw commands for the current transient state.
func (e *Editor) Overlay() []engine.DrawCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	var cmds []engine.DrawCommand
	e.doc.View(func(plan *document.Plan) {
		cmds = e.eng.Overlay(plan, e.state)
	})
	return cmds
}

// Presence describes this client's cursor, tool and selection.
func (e *Editor) Presence() *collab.PresencePayload {
	e.mu.Lock()
	defer e.mu.Unlock()
	return collab.LocalPresence(e.state.Cursor, string(e.state.Tool), e.state.Selection)
}

// Outbox drains the queued local batches as op.submit messages. When the
// replica has diverged from the server a doc.request comes first.
func (e *Editor) Outbox() ([]*collab.Message, error) {
	e.mu.Lock()
	batches := e.outbox
	e.outbox = nil
	needSync := e.needSync
	e.needSync = false
	e.mu.Unlock()

	msgs := make([]*collab.Message, 0, len(batches)+1)
	if needSync {
		msgs = append(msgs, &collab.Message{Type: collab.TypeDocRequest, ProjectID: e.projectID})
	}
	for _, b := range batches {
		payload, err := json.Marshal(collab.BatchSubmitPayload{Batch: b})
		if err != nil {
			return nil, fmt.Errorf("marshal batch %s: %w", b.ID, err)
		}
		msgs = append(msgs, &collab.Message{Type: collab.TypeOpSubmit, ProjectID: e.projectID, Payload: payload})
	}
	return msgs, nil
}

// ServerSeq is the last sequence number confirmed by the server.
func (e *Editor) ServerSeq() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serverSeq
}

// Receive applies a server message to the replica. Messages the editor has
// no use for are ignored.
func (e *Editor) Receive(msg *collab.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch msg.Type {
	case collab.TypeDocSync:
		var p collab.DocSyncPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode doc.sync: %w", err)
		}
		if p.Plan == nil {
			return fmt.Errorf("doc.sync without plan")
		}
		e.reset(p.Plan, p.ServerSeq)

	case collab.TypeOpBroadcast:
		var p collab.BatchBroadcastPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode op.broadcast: %w", err)
		}
		if p.ServerSeq <= e.serverSeq {
			return nil
		}
		if _, err := e.base.ApplyBatch(p.Batch); err != nil {
			// The confirmed plan has diverged; ask for the server copy.
			e.needSync = true
			return fmt.Errorf("apply remote batch %s: %w", p.Batch.ID, err)
		}
		e.serverSeq = p.ServerSeq
		e.rebase()

	case collab.TypeOpAck:
		var p collab.BatchAckPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode op.ack: %w", err)
		}
		if p.ServerSeq <= e.serverSeq {
			return nil
		}
		e.serverSeq = p.ServerSeq
		b, ok := e.settle(p.BatchID)
		if !ok {
			e.logger.Warn("ack for unknown batch", "batch", p.BatchID, "seq", p.ServerSeq)
			e.needSync = true
			return nil
		}
		if _, err := e.base.ApplyBatch(b); err != nil {
			e.logger.Warn("acked batch does not apply to confirmed plan", "batch", b.ID, "error", err)
			e.needSync = true
		}

	case collab.TypeOpNack:
		var p collab.BatchNackPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("decode op.nack: %w", err)
		}
		e.logger.Warn("batch rejected by server", "batch", p.BatchID, "reason", p.Reason)
		if _, ok := e.settle(p.BatchID); ok {
			e.outbox = slices.DeleteFunc(e.outbox, func(o collab.Batch) bool { return o.ID == p.BatchID })
			e.rebase()
		}
	}
	return nil
}
