package project

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/drafting/internal/auth"
	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/store"
)

type memStore struct {
	users     map[string]store.User
	projects  map[string]store.Project
	members   map[string]map[string]store.Role // projectID -> userID -> role
	snapshots map[string][]store.Snapshot
}

func newMemStore() *memStore {
	return &memStore{
		users: map[string]store.User{
			"user_owner": {ID: "user_owner", Email: "owner@example.com", DisplayName: "Owner"},
			"user_guest": {ID: "user_guest", Email: "guest@example.com", DisplayName: "Guest"},
		},
		projects:  map[string]store.Project{},
		members:   map[string]map[string]store.Role{},
		snapshots: map[string][]store.Snapshot{},
	}
}

func (m *memStore) CreateProject(_ context.Context, arg store.CreateProjectParams) (store.Project, error) {
	p := store.Project{ID: arg.ID, Name: arg.Name, OwnerID: arg.OwnerID}
	m.projects[p.ID] = p
	return p, nil
}

func (m *memStore) GetProject(_ context.Context, id string) (store.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return store.Project{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *memStore) ListProjectsForUser(_ context.Context, userID string) ([]store.Project, error) {
	var out []store.Project
	for id, members := range m.members {
		if _, ok := members[userID]; ok {
			out = append(out, m.projects[id])
		}
	}
	return out, nil
}

func (m *memStore) DeleteProject(_ context.Context, id string) error {
	delete(m.projects, id)
	delete(m.members, id)
	return nil
}

func (m *memStore) AddProjectMember(_ context.Context, projectID, userID string, role store.Role) error {
	if m.members[projectID] == nil {
		m.members[projectID] = map[string]store.Role{}
	}
	m.members[projectID][userID] = role
	return nil
}

func (m *memStore) GetProjectMember(_ context.Context, projectID, userID string) (store.Member, error) {
	role, ok := m.members[projectID][userID]
	if !ok {
		return store.Member{}, pgx.ErrNoRows
	}
	return store.Member{ProjectID: projectID, UserID: userID, Role: role}, nil
}

func (m *memStore) ListProjectMembers(_ context.Context, projectID string) ([]store.Member, error) {
	var out []store.Member
	for userID, role := range m.members[projectID] {
		u := m.users[userID]
		out = append(out, store.Member{ProjectID: projectID, UserID: userID, Role: role, DisplayName: u.DisplayName, Email: u.Email})
	}
	slices.SortFunc(out, func(a, b store.Member) int { return strings.Compare(a.UserID, b.UserID) })
	return out, nil
}

func (m *memStore) RemoveProjectMember(_ context.Context, projectID, userID string) error {
	delete(m.members[projectID], userID)
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, pgx.ErrNoRows
}

func (m *memStore) RenameProject(_ context.Context, id, name string) (store.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return store.Project{}, pgx.ErrNoRows
	}
	p.Name = name
	m.projects[id] = p
	return p, nil
}

func (m *memStore) SavePlan(_ context.Context, projectID string, plan *document.Plan) (store.Snapshot, error) {
	doc, err := json.Marshal(plan)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap := store.Snapshot{
		ID:        fmt.Sprintf("snap_%d", len(m.snapshots[projectID])+1),
		ProjectID: projectID,
		Version:   int32(len(m.snapshots[projectID]) + 1),
		Document:  doc,
	}
	m.snapshots[projectID] = append(m.snapshots[projectID], snap)
	return snap, nil
}

func (m *memStore) LoadPlan(_ context.Context, projectID string) (*document.Plan, error) {
	snaps := m.snapshots[projectID]
	if len(snaps) == 0 {
		return nil, pgx.ErrNoRows
	}
	return store.DecodePlan(snaps[len(snaps)-1].Document)
}

func (m *memStore) LoadPlanVersion(_ context.Context, projectID string, version int32) (*document.Plan, error) {
	for _, snap := range m.snapshots[projectID] {
		if snap.Version == version {
			return store.DecodePlan(snap.Document)
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) ListSnapshots(_ context.Context, projectID string) ([]store.SnapshotInfo, error) {
	var out []store.SnapshotInfo
	for _, snap := range slices.Backward(m.snapshots[projectID]) {
		out = append(out, store.SnapshotInfo{ID: snap.ID, Version: snap.Version, CreatedAt: snap.CreatedAt})
	}
	return out, nil
}

func TestCreateSeedsPlan(t *testing.T) {
	mem := newMemStore()
	svc := NewService(mem)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateParams{Name: "Cottage", OwnerID: "user_owner"})
	require.NoError(t, err)
	assert.Equal(t, "Cottage", p.Name)

	plan, err := svc.Plan(ctx, p.ID, "user_owner")
	require.NoError(t, err)
	assert.Equal(t, p.ID, plan.Project.ID)
	assert.Equal(t, "Cottage", plan.Project.Name)
	assert.Len(t, plan.Layers, 1)
	assert.Empty(t, plan.Walls)

	_, err = svc.Plan(ctx, p.ID, "user_guest")
	assert.ErrorIs(t, err, ErrNotMember)

	sample, err := svc.Create(ctx, CreateParams{Name: "Demo", OwnerID: "user_owner", Template: TemplateSample})
	require.NoError(t, err)
	plan, err = svc.Plan(ctx, sample.ID, "user_owner")
	require.NoError(t, err)
	assert.Equal(t, "Demo", plan.Project.Name)
	assert.NotEmpty(t, plan.Walls)

	_, err = svc.Create(ctx, CreateParams{Name: "Castle", OwnerID: "user_owner", Template: "castle"})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Len(t, mem.projects, 2, "unknown template creates nothing")
}

func TestSnapshotHistory(t *testing.T) {
	mem := newMemStore()
	svc := NewService(mem)
	ctx := context.Background()
	p, err := svc.Create(ctx, CreateParams{Name: "Cottage", OwnerID: "user_owner"})
	require.NoError(t, err)

	edited := document.NewSamplePlan(p.ID)
	_, err = mem.SavePlan(ctx, p.ID, edited)
	require.NoError(t, err)

	snaps, err := svc.Snapshots(ctx, p.ID, "user_owner")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, int32(2), snaps[0].Version)

	first, err := svc.PlanVersion(ctx, p.ID, "user_owner", 1)
	require.NoError(t, err)
	assert.Empty(t, first.Walls)

	_, err = svc.PlanVersion(ctx, p.ID, "user_owner", 9)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Plan(ctx, "wall_01h2xcejqtf2nbrexx3vqjhp41", "user_owner")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMembership(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	p, err := svc.Create(ctx, CreateParams{Name: "Cottage", OwnerID: "user_owner"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.InviteByEmail(ctx, p.ID, "user_guest", "guest@example.com"), ErrForbidden)
	assert.ErrorIs(t, svc.InviteByEmail(ctx, p.ID, "user_owner", "nobody@example.com"), ErrUserNotFound)
	require.NoError(t, svc.InviteByEmail(ctx, p.ID, "user_owner", "guest@example.com"))

	members, err := svc.ListMembers(ctx, p.ID, "user_guest")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "editor", members[0].Role)

	_, err = svc.Rename(ctx, p.ID, "user_guest", "Mine now")
	assert.ErrorIs(t, err, ErrForbidden)
	renamed, err := svc.Rename(ctx, p.ID, "user_owner", "Cabin")
	require.NoError(t, err)
	assert.Equal(t, "Cabin", renamed.Name)

	assert.ErrorIs(t, svc.RemoveMember(ctx, p.ID, "user_owner", "user_owner"), ErrRemoveOwner)
	require.NoError(t, svc.RemoveMember(ctx, p.ID, "user_owner", "user_guest"))
	assert.ErrorIs(t, svc.IsMember(ctx, p.ID, "user_guest"), ErrNotMember)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID, "user_guest"), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, p.ID, "user_owner"))
	_, err = svc.Get(ctx, p.ID, "user_owner")
	assert.ErrorIs(t, err, ErrNotMember)
	assert.ErrorIs(t, svc.Delete(ctx, p.ID, "user_owner"), ErrNotFound)
}

func TestHandlerRoutes(t *testing.T) {
	svc := NewService(newMemStore())
	r := mux.NewRouter()
	NewHandler(svc).Routes(r)

	do := func(method, path, userID, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/projects", "user_owner", `{"name":"  Cottage ","template":"sample"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Cottage", created.Name)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/projects", "user_owner", `{"name":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/projects", "user_owner", `{`).Code)

	rec = do(http.MethodGet, "/projects/"+created.ID, "user_owner", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/projects/"+created.ID, "user_guest", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"not a project member"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/projects/not-an-id/members", "user_owner", "").Code)

	rec = do(http.MethodGet, "/projects/"+created.ID+"/plan", "user_owner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	plan, err := store.DecodePlan(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, plan.Walls, 4)

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/projects/"+created.ID+"/snapshots/latest", "user_owner", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/projects/"+created.ID+"/snapshots/1", "user_owner", "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/projects/"+created.ID+"/snapshots/2", "user_owner", "").Code)

	rec = do(http.MethodPatch, "/projects/"+created.ID, "user_owner", `{"name":"Cabin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Cabin"`)

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/projects/"+created.ID, "user_owner", "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, "/projects/"+created.ID, "user_owner", "").Code)
}
