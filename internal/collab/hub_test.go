package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/document"
)

type savedPlans struct {
	mu    sync.Mutex
	plans map[string]*document.Plan
	calls int
}

func (s *savedPlans) save(projectID string, plan *document.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plans == nil {
		s.plans = map[string]*document.Plan{}
	}
	s.plans[projectID] = plan
	s.calls++
	return nil
}

func (s *savedPlans) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestHub(saver Saver) (*Hub, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	load := func(projectID string) (*document.Plan, error) {
		return document.NewEmptyPlan(projectID, "test", "base"), nil
	}
	return NewHub(load, saver, WithMetrics(NewMetrics(reg)), WithSaveInterval(0)), reg
}

// metricValue reads a gauge or counter from reg. label, when given, selects
// the series whose "result" label matches.
func metricValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func newTestClient(h *Hub, id string) *Client {
	return &Client{
		Identity: Identity{UserID: "user-" + id, DisplayName: id, ProjectID: "proj1", ClientID: id},
		hub:      h,
		send:     make(chan []byte, 32),
	}
}

// drain returns every queued message without blocking.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

func submit(t *testing.T, ops ...Operation) *Message {
	t.Helper()
	payload, err := json.Marshal(BatchSubmitPayload{Batch: Batch{ID: "edit_1", Operations: ops}})
	require.NoError(t, err)
	return &Message{Type: TypeOpSubmit, Payload: payload}
}

func TestHubJoin(t *testing.T) {
	h, reg := newTestHub(nil)
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")

	h.addClient(a)
	msgs := drain(t, a)
	assert.Equal(t, []string{TypeWelcome, TypeDocSync, TypePresenceState}, types(msgs))

	var docSync DocSyncPayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &docSync))
	assert.Equal(t, "proj1", docSync.Plan.Project.ID)

	h.addClient(b)
	drain(t, b)
	assert.Equal(t, []string{TypePresenceJoin}, types(drain(t, a)))

	assert.Equal(t, 2.0, metricValue(t, reg, "drafting_collab_clients", ""))
	assert.Equal(t, 1.0, metricValue(t, reg, "drafting_collab_rooms", ""))
}

func TestHubSubmitAcksAndBroadcasts(t *testing.T) {
	h, reg := newTestHub(nil)
	a, b := newTestClient(h, "a"), newTestClient(h, "b")
	h.addClient(a)
	h.addClient(b)
	drain(t, a)
	drain(t, b)

	h.handleMessage(a, submit(t, wallOp(OpWallCreate, "w1", 100)))

	acks := drain(t, a)
	require.Equal(t, []string{TypeOpAck}, types(acks))
	var ack BatchAckPayload
	require.NoError(t, json.Unmarshal(acks[0].Payload, &ack))
	assert.Equal(t, "edit_1", ack.BatchID)
	assert.Equal(t, int64(1), ack.ServerSeq)

	out := drain(t, b)
	require.Equal(t, []string{TypeOpBroadcast}, types(out))
	var bc BatchBroadcastPayload
	require.NoError(t, json.Unmarshal(out[0].Payload, &bc))
	assert.Equal(t, "user-a", bc.UserID)
	require.Len(t, bc.Batch.Operations, 1)
	assert.Equal(t, "w1", bc.Batch.Operations[0].Wall.ID)

	room, ok := h.Room("proj1")
	require.True(t, ok)
	assert.True(t, room.Dirty())
	assert.Equal(t, 1.0, metricValue(t, reg, "drafting_collab_batches_total", "ok"))
}

func TestHubRejectsInvalidBatch(t *testing.T) {
	h, reg := newTestHub(nil)
	a, b := newTestClient(h, "a"), newTestClient(h, "b")
	h.addClient(a)
	h.addClient(b)
	drain(t, a)
	drain(t, b)

	h.handleMessage(a, submit(t, wallOp(OpWallUpdate, "missing", 10)))

	assert.Equal(t, []string{TypeOpNack}, types(drain(t, a)))
	assert.Empty(t, drain(t, b))
	assert.Equal(t, 1.0, metricValue(t, reg, "drafting_collab_batches_total", "error"))
}

func TestHubPresence(t *testing.T) {
	h, _ := newTestHub(nil)
	a, b := newTestClient(h, "a"), newTestClient(h, "b")
	h.addClient(a)
	h.addClient(b)
	drain(t, a)
	drain(t, b)

	payload, err := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 1, Y: 2}, Tool: "draw-wall"})
	require.NoError(t, err)
	h.handleMessage(a, &Message{Type: TypePresenceUpdate, Payload: payload})

	msgs := drain(t, b)
	require.Equal(t, []string{TypePresenceUpdate}, types(msgs))
	var got PresencePayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &got))
	assert.Equal(t, "a", got.DisplayName)
	assert.Equal(t, "draw-wall", got.Tool)

	h.removeClient(a)
	assert.Equal(t, []string{TypePresenceLeave}, types(drain(t, b)))
	room, _ := h.Room("proj1")
	assert.NotContains(t, room.presence.Snapshot(), "a")
}

func TestHubSavesWhenLastClientLeaves(t *testing.T) {
	saved := &savedPlans{}
	h, _ := newTestHub(saved.save)
	a := newTestClient(h, "a")
	h.addClient(a)

	h.removeClient(a)
	assert.Equal(t, 0, saved.count(), "clean rooms are not saved")

	a = newTestClient(h, "a")
	h.addClient(a)
	h.handleMessage(a, submit(t, wallOp(OpWallCreate, "w1", 100)))
	h.removeClient(a)

	require.Equal(t, 1, saved.count())
	assert.Contains(t, saved.plans["proj1"].Walls, "w1")
	_, open := h.Room("proj1")
	assert.False(t, open)
}

func TestHubStopSavesDirtyRooms(t *testing.T) {
	saved := &savedPlans{}
	h, _ := newTestHub(saved.save)
	go h.Run()

	a := newTestClient(h, "a")
	h.Register(a)
	require.Eventually(t, func() bool {
		_, ok := h.Room("proj1")
		return ok
	}, time.Second, time.Millisecond)
	h.handleMessage(a, submit(t, wallOp(OpWallCreate, "w1", 100)))

	h.Stop()
	assert.Equal(t, 1, saved.count())
	h.Stop()
}

func TestHubLoaderFailureStartsEmpty(t *testing.T) {
	h := NewHub(func(string) (*document.Plan, error) {
		return nil, errors.New("no snapshot")
	}, nil, WithSaveInterval(0))
	a := newTestClient(h, "a")
	h.addClient(a)

	room, ok := h.Room("proj1")
	require.True(t, ok)
	plan := room.doc.Plan()
	assert.Equal(t, "proj1", plan.Project.ID)
	assert.Len(t, plan.Layers, 1)
}

func TestHubJoinDuringSubmitsStaysInSequence(t *testing.T) {
	h, _ := newTestHub(nil)
	a := newTestClient(h, "a")
	a.send = make(chan []byte, 128)
	h.addClient(a)

	const edits = 50
	msgs := make([]*Message, edits)
	for i := range msgs {
		msgs[i] = submit(t, wallOp(OpWallCreate, fmt.Sprintf("w%d", i), 100))
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, msg := range msgs {
			h.handleMessage(a, msg)
		}
	}()

	b := newTestClient(h, "b")
	b.send = make(chan []byte, 128)
	h.addClient(b)
	<-done

	var syncSeq int64 = -1
	var seqs []int64
	for _, msg := range drain(t, b) {
		switch msg.Type {
		case TypeDocSync:
			var p DocSyncPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &p))
			syncSeq = p.ServerSeq
			assert.Len(t, p.Plan.Walls, int(p.ServerSeq), "plan matches its sequence")
		case TypeOpBroadcast:
			var p BatchBroadcastPayload
			require.NoError(t, json.Unmarshal(msg.Payload, &p))
			seqs = append(seqs, p.ServerSeq)
		}
	}
	require.GreaterOrEqual(t, syncSeq, int64(0))
	for i, seq := range seqs {
		assert.Equal(t, syncSeq+int64(i)+1, seq)
	}
	assert.Equal(t, int64(edits), syncSeq+int64(len(seqs)))
}

func TestHubDocRequest(t *testing.T) {
	h, _ := newTestHub(nil)
	a := newTestClient(h, "a")
	h.addClient(a)
	h.handleMessage(a, submit(t, wallOp(OpWallCreate, "w1", 100)))
	drain(t, a)

	h.handleMessage(a, &Message{Type: TypeDocRequest})

	msgs := drain(t, a)
	require.Equal(t, []string{TypeDocSync}, types(msgs))
	var p DocSyncPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &p))
	assert.Equal(t, int64(1), p.ServerSeq)
	assert.Contains(t, p.Plan.Walls, "w1")
}

func TestHubLoadsPlanOutsideLock(t *testing.T) {
	var h *Hub
	h = NewHub(func(projectID string) (*document.Plan, error) {
		// Another room is readable while this one loads.
		h.Room("other")
		return document.NewEmptyPlan(projectID, "test", "base"), nil
	}, nil, WithSaveInterval(0))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.addClient(newTestClient(h, "a"))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("addClient blocked while loading")
	}
	_, ok := h.Room("proj1")
	assert.True(t, ok)
}
