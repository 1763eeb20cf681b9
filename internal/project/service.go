package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inamate/drafting/internal/document"
	"github.com/inamate/drafting/internal/store"
	"github.com/inamate/drafting/internal/typeid"
)

var (
	ErrNotFound        = errors.New("project not found")
	ErrForbidden       = errors.New("forbidden")
	ErrNotMember       = errors.New("not a project member")
	ErrUserNotFound    = errors.New("user not found")
	ErrRemoveOwner     = errors.New("cannot remove project owner")
	ErrUnknownTemplate = errors.New("unknown plan template")
)

// Store is the persistence the project service needs. *store.Store
// implements it.
type Store interface {
	CreateProject(ctx context.Context, arg store.CreateProjectParams) (store.Project, error)
	GetProject(ctx context.Context, id string) (store.Project, error)
	RenameProject(ctx context.Context, id, name string) (store.Project, error)
	ListProjectsForUser(ctx context.Context, userID string) ([]store.Project, error)
	DeleteProject(ctx context.Context, id string) error

	AddProjectMember(ctx context.Context, projectID, userID string, role store.Role) error
	GetProjectMember(ctx context.Context, projectID, userID string) (store.Member, error)
	ListProjectMembers(ctx context.Context, projectID string) ([]store.Member, error)
	RemoveProjectMember(ctx context.Context, projectID, userID string) error
	GetUserByEmail(ctx context.Context, email string) (store.User, error)

	SavePlan(ctx context.Context, projectID string, plan *document.Plan) (store.Snapshot, error)
	LoadPlan(ctx context.Context, projectID string) (*document.Plan, error)
	LoadPlanVersion(ctx context.Context, projectID string, version int32) (*document.Plan, error)
	ListSnapshots(ctx context.Context, projectID string) ([]store.SnapshotInfo, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type Member struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type SnapshotInfo struct {
	ID        string `json:"id"`
	Version   int32  `json:"version"`
	CreatedAt string `json:"createdAt"`
}

// Plan templates a new project can start from.
const (
	TemplateEmpty  = "empty"
	TemplateSample = "sample"
)

type CreateParams struct {
	Name     string
	OwnerID  string
	Template string // TemplateEmpty when unset
}

// Create makes the project, adds the owner as a member and stores the
// first plan snapshot.
func (s *Service) Create(ctx context.Context, arg CreateParams) (*Project, error) {
	projectID := typeid.Project.New()

	var plan *document.Plan
	switch arg.Template {
	case "", TemplateEmpty:
		plan = document.NewEmptyPlan(projectID, arg.Name, typeid.Layer.New())
	case TemplateSample:
		plan = document.NewSamplePlan(projectID)
		plan.Project.Name = arg.Name
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, arg.Template)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	plan.Project.CreatedAt = now
	plan.Project.UpdatedAt = now

	p, err := s.store.CreateProject(ctx, store.CreateProjectParams{
		ID:      projectID,
		Name:    arg.Name,
		OwnerID: arg.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	if err := s.store.AddProjectMember(ctx, projectID, arg.OwnerID, store.RoleOwner); err != nil {
		return nil, fmt.Errorf("add owner as member: %w", err)
	}
	if _, err := s.store.SavePlan(ctx, projectID, plan); err != nil {
		return nil, fmt.Errorf("save initial plan: %w", err)
	}

	return toProject(p), nil
}

func (s *Service) Get(ctx context.Context, projectID, userID string) (*Project, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "get project")
	}
	return toProject(p), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Project, error) {
	rows, err := s.store.ListProjectsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]Project, len(rows))
	for i, p := range rows {
		projects[i] = *toProject(p)
	}
	return projects, nil
}

// Rename changes the project name. Only the owner may rename.
func (s *Service) Rename(ctx context.Context, projectID, userID, name string) (*Project, error) {
	if _, err := s.requireOwner(ctx, projectID, userID); err != nil {
		return nil, err
	}
	p, err := s.store.RenameProject(ctx, projectID, name)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "rename project")
	}
	return toProject(p), nil
}

func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if _, err := s.requireOwner(ctx, projectID, userID); err != nil {
		return err
	}
	return s.store.DeleteProject(ctx, projectID)
}

// InviteByEmail adds an existing user as an editor.
func (s *Service) InviteByEmail(ctx context.Context, projectID, ownerID, email string) error {
	if _, err := s.requireOwner(ctx, projectID, ownerID); err != nil {
		return err
	}
	invitee, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return notFound(err, ErrUserNotFound, "find user")
	}
	return s.store.AddProjectMember(ctx, projectID, invitee.ID, store.RoleEditor)
}

func (s *Service) ListMembers(ctx context.Context, projectID, userID string) ([]Member, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListProjectMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members := make([]Member, len(rows))
	for i, m := range rows {
		members[i] = Member{UserID: m.UserID, Role: string(m.Role), DisplayName: m.DisplayName, Email: m.Email}
	}
	return members, nil
}

func (s *Service) RemoveMember(ctx context.Context, projectID, ownerID, targetUserID string) error {
	if _, err := s.requireOwner(ctx, projectID, ownerID); err != nil {
		return err
	}
	if targetUserID == ownerID {
		return ErrRemoveOwner
	}
	return s.store.RemoveProjectMember(ctx, projectID, targetUserID)
}

// Plan returns the latest saved plan.
func (s *Service) Plan(ctx context.Context, projectID, userID string) (*document.Plan, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	plan, err := s.store.LoadPlan(ctx, projectID)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "load plan")
	}
	return plan, nil
}

// PlanVersion returns the plan as saved in one snapshot version.
func (s *Service) PlanVersion(ctx context.Context, projectID, userID string, version int32) (*document.Plan, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	plan, err := s.store.LoadPlanVersion(ctx, projectID, version)
	if err != nil {
		return nil, notFound(err, ErrNotFound, "load plan version")
	}
	return plan, nil
}

// Snapshots lists the saved versions, newest first.
func (s *Service) Snapshots(ctx context.Context, projectID, userID string) ([]SnapshotInfo, error) {
	if err := s.checkMembership(ctx, projectID, userID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListSnapshots(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]SnapshotInfo, len(rows))
	for i, r := range rows {
		out[i] = SnapshotInfo{ID: r.ID, Version: r.Version, CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339)}
	}
	return out, nil
}

// IsMember returns ErrNotMember unless userID belongs to the project, or
// ErrNotFound for a malformed project id.
func (s *Service) IsMember(ctx context.Context, projectID, userID string) error {
	return s.checkMembership(ctx, projectID, userID)
}

func (s *Service) checkMembership(ctx context.Context, projectID, userID string) error {
	if err := typeid.Project.Validate(projectID); err != nil {
		return ErrNotFound
	}
	if _, err := s.store.GetProjectMember(ctx, projectID, userID); err != nil {
		return notFound(err, ErrNotMember, "check membership")
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, projectID, userID string) (store.Project, error) {
	p, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return p, notFound(err, ErrNotFound, "get project")
	}
	if p.OwnerID != userID {
		return p, ErrForbidden
	}
	return p, nil
}

// notFound maps a missing row to sentinel and wraps anything else.
func notFound(err, sentinel error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toProject(p store.Project) *Project {
	return &Project{
		ID:        p.ID,
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
