package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

type createAutomationRequest struct {
	Name     string          `json:"name"`
	Action   string          `json:"action"`
	Schedule string          `json:"schedule"`
	Params   json.RawMessage `json:"params"`
}

type updateAutomationRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandleCreateAutomation handles POST /automations
func (h *Handler) HandleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	if h.Automations == nil || h.Repo == nil {
		http.Error(w, "automations not configured", http.StatusServiceUnavailable)
		return
	}

	var req createAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Action = strings.TrimSpace(req.Action)
	req.Schedule = strings.TrimSpace(req.Schedule)
	if req.Name == "" || req.Action == "" || req.Schedule == "" {
		http.Error(w, "name, action and schedule are required", http.StatusBadRequest)
		return
	}

	params := ""
	if len(req.Params) > 0 {
		if !json.Valid(req.Params) {
			http.Error(w, "params must be valid JSON", http.StatusBadRequest)
			return
		}
		params = string(req.Params)
	}

	id, err := h.Automations.Create(req.Name, req.Action, req.Schedule, params)
	if err != nil {
		http.Error(w, "failed to create automation: "+err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.Repo.GetAutomation(id)
	if err != nil {
		http.Error(w, "failed to fetch created automation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleListAutomations handles GET /automations
func (h *Handler) HandleListAutomations(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		http.Error(w, "automations not configured", http.StatusServiceUnavailable)
		return
	}
	list, err := h.Repo.ListAutomations()
	if err != nil {
		http.Error(w, "failed to list automations: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"automations": list})
}

// HandleUpdateAutomation handles PATCH /automations/{id}
func (h *Handler) HandleUpdateAutomation(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		http.Error(w, "automations not configured", http.StatusServiceUnavailable)
		return
	}
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}
	current, err := h.Repo.GetAutomation(id)
	if err != nil {
		http.Error(w, "failed to load automation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if current == nil {
		http.Error(w, "automation not found", http.StatusNotFound)
		return
	}

	var req updateAutomationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Enabled == nil {
		http.Error(w, "enabled is required", http.StatusBadRequest)
		return
	}

	if err := h.Repo.SetAutomationEnabled(id, *req.Enabled); err != nil {
		http.Error(w, "failed to update automation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	updated, err := h.Repo.GetAutomation(id)
	if err != nil {
		http.Error(w, "failed to fetch automation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteAutomation handles DELETE /automations/{id}
func (h *Handler) HandleDeleteAutomation(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		http.Error(w, "automations not configured", http.StatusServiceUnavailable)
		return
	}
	id, ok := parseIDPath(w, r)
	if !ok {
		return
	}
	current, err := h.Repo.GetAutomation(id)
	if err != nil {
		http.Error(w, "failed to load automation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if current == nil {
		http.Error(w, "automation not found", http.StatusNotFound)
		return
	}
	if err := h.Repo.DeleteAutomation(id); err != nil {
		http.Error(w, "failed to delete automation: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseIDPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
