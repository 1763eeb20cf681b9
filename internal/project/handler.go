package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/drafting/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the project API on r. r is expected to run the auth
// middleware.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/projects", h.List).Methods("GET")
	r.HandleFunc("/projects", h.Create).Methods("POST")
	r.HandleFunc("/projects/{projectId}", h.Get).Methods("GET")
	r.HandleFunc("/projects/{projectId}", h.Rename).Methods("PATCH")
	r.HandleFunc("/projects/{projectId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/projects/{projectId}/invite", h.Invite).Methods("POST")
	r.HandleFunc("/projects/{projectId}/members", h.ListMembers).Methods("GET")
	r.HandleFunc("/projects/{projectId}/members/{userId}", h.RemoveMember).Methods("DELETE")
	r.HandleFunc("/projects/{projectId}/plan", h.Plan).Methods("GET")
	r.HandleFunc("/projects/{projectId}/snapshots", h.Snapshots).Methods("GET")
	r.HandleFunc("/projects/{projectId}/snapshots/latest", h.Plan).Methods("GET")
	r.HandleFunc("/projects/{projectId}/snapshots/{version:[0-9]+}", h.PlanVersion).Methods("GET")
}

type createRequest struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := h.service.Create(r.Context(), CreateParams{
		Name:     req.Name,
		OwnerID:  auth.UserIDFromContext(r.Context()),
		Template: req.Template,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.service.Get(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	project, err := h.service.Rename(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), projectID(r), auth.UserIDFromContext(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.service.InviteByEmail(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "invited"})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	target := mux.Vars(r)["userId"]
	if err := h.service.RemoveMember(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()), target); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Plan serves the latest saved plan document.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.Plan(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) Snapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.service.Snapshots(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (h *Handler) PlanVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.ParseInt(mux.Vars(r)["version"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid version")
		return
	}
	plan, err := h.service.PlanVersion(r.Context(), projectID(r), auth.UserIDFromContext(r.Context()), int32(version))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func projectID(r *http.Request) string {
	return mux.Vars(r)["projectId"]
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

var serviceErrors = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrUserNotFound, http.StatusNotFound},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotMember, http.StatusForbidden},
	{ErrRemoveOwner, http.StatusBadRequest},
	{ErrUnknownTemplate, http.StatusBadRequest},
}

func handleServiceError(w http.ResponseWriter, err error) {
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			writeError(w, se.status, se.err.Error())
			return
		}
	}
	slog.Error("project service error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
