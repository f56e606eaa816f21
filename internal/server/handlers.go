package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/aryannaik/embedding-compare/internal/compare"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	session *compare.Session
	page    *template.Template
	logger  *zap.Logger
}

func NewHandlers(session *compare.Session, logger *zap.Logger) (*Handlers, error) {
	page, err := template.New("index.html").Funcs(template.FuncMap{
		"inc":   func(i int) int { return i + 1 },
		"score": formatScore,
	}).ParseFS(assets, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	return &Handlers{
		session: session,
		page:    page,
		logger:  logger,
	}, nil
}

type pageData struct {
	APIKey  string
	Base    string
	Targets string
	compare.Snapshot
}

func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	h.render(w, pageData{
		APIKey:   h.session.APIKey(),
		Base:     snap.Base,
		Targets:  strings.Join(snap.Targets, "\n"),
		Snapshot: snap,
	})
}

// HandleSubmit runs the form submission and renders the outcome. A form
// without an API key is ignored.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := compare.Form{
		APIKey:  r.PostForm.Get("apiKey"),
		Base:    r.PostForm.Get("base"),
		Targets: compare.SplitLines(r.PostForm.Get("targets")),
	}

	// Failures are part of the snapshot; a missing key leaves it untouched.
	snap, _ := h.session.Submit(r.Context(), form)

	h.render(w, pageData{
		APIKey:   form.APIKey,
		Base:     form.Base,
		Targets:  r.PostForm.Get("targets"),
		Snapshot: snap,
	})
}

func (h *Handlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var form compare.Form
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	snap, err := h.session.Submit(r.Context(), form)
	switch {
	case errors.Is(err, compare.ErrMissingAPIKey):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusBadGateway, snap)
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}

type statusResponse struct {
	compare.Snapshot
	HasAPIKey bool `json:"hasApiKey"`
}

// HandleStatus reports the current state without the vectors.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	snap.Results = nil

	writeJSON(w, http.StatusOK, statusResponse{
		Snapshot:  snap,
		HasAPIKey: h.session.APIKey() != "",
	})
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.page.Execute(w, data); err != nil {
		h.logger.Error("render page", zap.Error(err))
	}
}

func formatScore(row compare.Row) string {
	switch {
	case !row.Computable:
		return ""
	case math.IsNaN(row.Similarity):
		return "NaN"
	default:
		return fmt.Sprintf("%.6f", row.Similarity)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
