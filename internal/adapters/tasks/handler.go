// Package tasks exposes the task service over a REST-style HTTP surface.
// Routing, status mapping, and payload validation live here; resolution and
// update semantics stay in the core service.
package tasks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"taskcore/internal/core"
	"taskcore/pkg/domain"
)

const routePrefix = "/api/v1/projects/"

// Handler provides HTTP access to project task lists, single-task resolution,
// partial updates, and snapshot archiving.
type Handler struct {
	Service *core.Service
}

// NewHandler constructs a task HTTP handler over the given service.
func NewHandler(svc *core.Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "task service not configured")
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if !strings.HasPrefix(path, routePrefix) {
		http.NotFound(w, r)
		return
	}
	segments := strings.Split(strings.TrimPrefix(path, routePrefix), "/")
	if len(segments) < 2 || segments[0] == "" {
		http.NotFound(w, r)
		return
	}
	projectID := segments[0]

	switch {
	case len(segments) == 2 && segments[1] == "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r, projectID)
		case http.MethodPost:
			h.handleCreate(w, r, projectID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case len(segments) == 3 && segments[1] == "tasks":
		switch r.Method {
		case http.MethodGet:
			h.handleResolve(w, r, projectID, segments[2])
		case http.MethodPut:
			h.handleUpdate(w, r, projectID, segments[2])
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case len(segments) == 2 && segments[1] == "snapshots":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleArchive(w, r, projectID)
	default:
		http.NotFound(w, r)
	}
}

// handleList serves the project task list. With ensure=1 the factor catalog
// is seeded first; a partial seeding failure is reported alongside the list
// instead of failing the read.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, projectID string) {
	response := map[string]any{}
	if ensure := r.URL.Query().Get("ensure"); ensure == "1" || strings.EqualFold(ensure, "true") {
		report, err := h.Service.EnsureSeeded(r.Context(), projectID)
		if err != nil {
			h.writeMappedError(w, projectID, err)
			return
		}
		response["seeding"] = report
	}
	tasks, err := h.Service.ListTasks(r.Context(), projectID)
	if err != nil {
		h.writeMappedError(w, projectID, err)
		return
	}
	response["tasks"] = tasks
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, projectID string) {
	var payload struct {
		Text     string `json:"text"`
		Notes    string `json:"notes"`
		Priority int    `json:"priority"`
		Owner    string `json:"owner"`
		Status   string `json:"status"`
	}
	if err := decodeBody(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid task payload")
		return
	}
	task := core.Task{
		Text:     payload.Text,
		Notes:    payload.Notes,
		Priority: payload.Priority,
		Owner:    payload.Owner,
		Status:   payload.Status,
	}
	created, err := h.Service.CreateTask(r.Context(), projectID, task)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"task": created})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request, projectID, rawID string) {
	if !domain.ValidRawID(rawID) {
		h.writeMappedError(w, projectID, domain.ErrMalformedIdentifier{RawID: rawID})
		return
	}
	res, err := h.Service.ResolveTask(r.Context(), projectID, rawID)
	if err != nil {
		h.writeMappedError(w, projectID, err)
		return
	}
	writeResolution(w, res)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, projectID, rawID string) {
	if !domain.ValidRawID(rawID) {
		h.writeMappedError(w, projectID, domain.ErrMalformedIdentifier{RawID: rawID})
		return
	}
	var patch core.TaskPatch
	if err := decodeBody(r.Body, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update payload")
		return
	}
	if patch.Empty() {
		writeError(w, http.StatusBadRequest, "patch contains no updatable fields")
		return
	}
	res, err := h.Service.UpdateTask(r.Context(), projectID, rawID, patch)
	if err != nil {
		h.writeMappedError(w, projectID, err)
		return
	}
	writeResolution(w, res)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request, projectID string) {
	info, err := h.Service.ArchiveSnapshot(r.Context(), projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"snapshot": info})
}

func writeResolution(w http.ResponseWriter, res core.Resolution) {
	payload := map[string]any{"task": res.Task, "strategy": res.Strategy}
	if len(res.Warnings) > 0 {
		payload["warnings"] = res.Warnings
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) writeMappedError(w http.ResponseWriter, projectID string, err error) {
	switch {
	case domain.IsMalformedIdentifier(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
