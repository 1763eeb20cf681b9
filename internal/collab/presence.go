package collab

import (
	"maps"
	"sync"

	"github.com/inamate/drafting/internal/geom"
	"github.com/inamate/drafting/internal/pick"
)

// PresenceManager tracks the cursor, tool and selection of every client in a
// room. Entries are keyed by client id so one user may have several tabs.
type PresenceManager struct {
	mu      sync.RWMutex
	entries map[string]*PresencePayload
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{entries: map[string]*PresencePayload{}}
}

// Set replaces what is known about clientID.
func (pm *PresenceManager) Set(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	pm.entries[clientID] = p
	pm.mu.Unlock()
}

func (pm *PresenceManager) Forget(clientID string) {
	pm.mu.Lock()
	delete(pm.entries, clientID)
	pm.mu.Unlock()
}

// Snapshot copies the current entries.
func (pm *PresenceManager) Snapshot() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := maps.Clone(pm.entries)
	if out == nil {
		out = map[string]*PresencePayload{}
	}
	return out
}

func (pm *PresenceManager) StateMessage() *Message {
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.Snapshot()})
}

// LocalPresence builds the presence payload a client publishes for its own
// engine state.
func LocalPresence(cursor geom.Point, tool string, sel pick.Selection) *PresencePayload {
	items := sel.Items()
	ids := make([]string, 0, len(items))
	for _, r := range items {
		ids = append(ids, r.ID)
	}
	return &PresencePayload{
		Cursor:    &CursorPos{X: cursor.X, Y: cursor.Y},
		Selection: ids,
		Tool:      tool,
	}
}
