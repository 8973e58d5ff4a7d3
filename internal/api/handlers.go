package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jobboard/tracker/internal/config"
	"github.com/jobboard/tracker/internal/controller"
	"github.com/jobboard/tracker/internal/tracker"
	"github.com/jobboard/tracker/internal/view"
)

var startTime = time.Now()

var errInvalidID = errors.New("invalid job id")

type Handlers struct {
	cfg  *config.Config
	ctrl *controller.Controller
}

func NewHandlers(cfg *config.Config, ctrl *controller.Controller) *Handlers {
	return &Handlers{cfg: cfg, ctrl: ctrl}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":            h.cfg.AppName,
		"version":        "0.1.0",
		"store_backend":  h.cfg.StoreBackend,
		"uptime_seconds": int(time.Since(startTime).Seconds()),
	})
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	page, err := h.ctrl.View()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds": int(time.Since(startTime).Seconds()),
		"jobs": map[string]int{
			"total":        page.Dashboard.Total,
			"interviewing": page.Dashboard.Interviewing,
			"rejected":     page.Dashboard.Rejected,
		},
		"filter": page.Filter,
		"shown":  page.TabCount,
	})
}

// HTML surface. Every form post redirects back to the index, which renders
// the whole page again.

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.ctrl.View()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := view.RenderHTML(&buf, page); err != nil {
		log.Printf("Render error: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handlers) SelectTabForm(w http.ResponseWriter, r *http.Request) {
	f, err := tracker.ParseFilter(chi.URLParam(r, "filter"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.ctrl.SelectTab(f); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) ToggleForm(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status, err := tracker.ParseToggle(chi.URLParam(r, "status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.ctrl.Toggle(id, status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := h.ctrl.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// JSON surface.

func (h *Handlers) GetView(w http.ResponseWriter, r *http.Request) {
	page, err := h.ctrl.View()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type FilterRequest struct {
	Filter string `json:"filter"`
}

func (h *Handlers) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	f, err := tracker.ParseFilter(req.Filter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.respond(w)(h.ctrl.SelectTab(f))
}

type ToggleRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) ToggleJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	status, err := tracker.ParseToggle(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.respond(w)(h.ctrl.Toggle(id, status))
}

// DeleteJob answers 200 with the page even when the id is unknown.
func (h *Handlers) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.respond(w)(h.ctrl.Delete(id))
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	j, err := h.ctrl.Board().Get(id)
	if errors.Is(err, tracker.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// ListJobs filters by the status query parameter without changing the
// board's active tab.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	f, err := tracker.ParseFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	jobs, err := h.ctrl.Board().List(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

func (h *Handlers) respond(w http.ResponseWriter) func(view.Page, error) {
	return func(page view.Page, err error) {
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func jobID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
