package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/StafflyAI/staffly-mvp/engine/chat"
	"github.com/StafflyAI/staffly-mvp/engine/domain"
	"github.com/StafflyAI/staffly-mvp/engine/ingest"
	"github.com/StafflyAI/staffly-mvp/engine/overview"
	"github.com/StafflyAI/staffly-mvp/engine/semantic"
	"github.com/StafflyAI/staffly-mvp/pkg/docstore"
	"github.com/StafflyAI/staffly-mvp/pkg/fn"
	"github.com/StafflyAI/staffly-mvp/pkg/metrics"
)

// Service interfaces consumed by the handlers. main.go wires the
// concrete implementations.

type matchService interface {
	Match(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
	MatchRoles(ctx context.Context, roles []domain.RoleSpec, limit int) ([]domain.RoleMatch, error)
}

type chatService interface {
	ProcessTurn(ctx context.Context, transcript []domain.ChatMessage) (chat.Turn, error)
}

type consultantStore interface {
	ScrollProfiles(ctx context.Context, limit int) ([]domain.ConsultantProfile, error)
	DeleteProfile(ctx context.Context, id string) error
	DeleteProfiles(ctx context.Context, ids []string) (int, []semantic.DeleteFailure)
}

type overviewService interface {
	Snapshot(ctx context.Context) overview.Stats
}

type resumeReader interface {
	Get(id string) ([]byte, error)
}

// resumeSubmitter hands an upload to the ingestion path, async or
// inline depending on wiring.
type resumeSubmitter func(ctx context.Context, upload ingest.ResumeUpload) error

// api bundles the handler dependencies.
type api struct {
	match    matchService
	chat     chatService
	store    consultantStore
	overview overviewService
	resumes  resumeReader
	submit   resumeSubmitter
	reg      *metrics.Registry
	logger   *slog.Logger

	defaultLimit int
	listLimit    int
}

func (a *api) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("POST /api/consultants/match", a.handleMatch)
	mux.HandleFunc("POST /api/consultants/match-roles", a.handleMatchRoles)
	mux.HandleFunc("POST /api/chat", a.handleChat)
	mux.HandleFunc("GET /api/consultants", a.handleListConsultants)
	mux.HandleFunc("DELETE /api/consultants/{id}", a.handleDeleteConsultant)
	mux.HandleFunc("DELETE /api/consultants", a.handleDeleteBatch)
	mux.HandleFunc("POST /api/resumes", a.handleUploadResume)
	mux.HandleFunc("GET /api/resumes/{id}", a.handleGetResume)
	mux.HandleFunc("GET /api/overview", a.handleOverview)
	mux.Handle("GET /metrics", a.reg.Handler())
}

// --- request/response types ---

type matchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type matchResponse struct {
	Candidates []domain.Candidate `json:"candidates"`
}

type matchRolesRequest struct {
	Roles []domain.RoleSpec `json:"roles"`
	Limit int               `json:"limit"`
}

type matchRolesResponse struct {
	Results []domain.RoleMatch `json:"results"`
}

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

type deleteBatchRequest struct {
	IDs []string `json:"ids"`
}

type deleteBatchResponse struct {
	Deleted  int                      `json:"deleted"`
	Failures []semantic.DeleteFailure `json:"failures,omitempty"`
}

type consultantsResponse struct {
	Consultants []domain.ConsultantProfile `json:"consultants"`
}

// --- handlers ---

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleMatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit == 0 {
		req.Limit = a.defaultLimit
	}

	candidates, err := a.match.Match(r.Context(), req.Query, req.Limit)
	if err != nil {
		a.domainError(w, err, "match")
		return
	}
	a.reg.Histogram("match_duration_seconds", "Match request latency", nil).Since(start)
	a.reg.Counter(metrics.WithLabels("match_requests_total", "kind", "single"), "Match requests").Inc()
	writeJSON(w, http.StatusOK, matchResponse{Candidates: candidates})
}

func (a *api) handleMatchRoles(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req matchRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Limit == 0 {
		req.Limit = a.defaultLimit
	}

	results, err := a.match.MatchRoles(r.Context(), req.Roles, req.Limit)
	if err != nil {
		a.domainError(w, err, "match-roles")
		return
	}
	a.reg.Histogram("match_duration_seconds", "Match request latency", nil).Since(start)
	a.reg.Counter(metrics.WithLabels("match_requests_total", "kind", "batch"), "Match requests").Inc()
	writeJSON(w, http.StatusOK, matchRolesResponse{Results: results})
}

func (a *api) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		a.error(w, http.StatusBadRequest, "messages are required")
		return
	}

	turn, err := a.chat.ProcessTurn(r.Context(), req.Messages)
	if err != nil {
		a.domainError(w, err, "chat")
		return
	}
	a.reg.Counter("chat_turns_total", "Chat turns processed").Inc()
	writeJSON(w, http.StatusOK, turn)
}

func (a *api) handleListConsultants(w http.ResponseWriter, r *http.Request) {
	limit := a.listLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	profiles, err := a.store.ScrollProfiles(r.Context(), limit)
	if err != nil {
		a.domainError(w, err, "list consultants")
		return
	}
	if profiles == nil {
		profiles = []domain.ConsultantProfile{}
	}
	writeJSON(w, http.StatusOK, consultantsResponse{Consultants: profiles})
}

func (a *api) handleDeleteConsultant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.store.DeleteProfile(r.Context(), id); err != nil {
		a.domainError(w, err, "delete consultant")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (a *api) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	var req deleteBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ids := fn.Unique(fn.Filter(req.IDs, func(id string) bool { return strings.TrimSpace(id) != "" }))
	if len(ids) == 0 {
		a.error(w, http.StatusBadRequest, "ids are required")
		return
	}

	deleted, failures := a.store.DeleteProfiles(r.Context(), ids)
	writeJSON(w, http.StatusOK, deleteBatchResponse{Deleted: deleted, Failures: failures})
}

func (a *api) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	data, name, err := readResume(r)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}

	upload := ingest.ResumeUpload{
		ID:       uuid.NewString(),
		FileName: name,
		Data:     data,
	}
	if err := a.submit(r.Context(), upload); err != nil {
		a.domainError(w, err, "submit resume")
		return
	}
	a.reg.Counter("resume_uploads_total", "Resumes accepted for ingestion").Inc()
	writeJSON(w, http.StatusAccepted, uploadResponse{ID: upload.ID})
}

// readResume accepts either a multipart form with a "file" field or a
// raw PDF body.
func readResume(r *http.Request) ([]byte, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("file field is required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("read upload: %v", err)
		}
		if len(data) == 0 {
			return nil, "", fmt.Errorf("empty upload")
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %v", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty upload")
	}
	return data, "resume.pdf", nil
}

func (a *api) handleGetResume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := a.resumes.Get(id)
	if err != nil {
		a.domainError(w, err, "get resume")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}

func (a *api) handleOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.overview.Snapshot(r.Context()))
}

// --- error mapping ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (a *api) error(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// domainError maps the domain error taxonomy onto HTTP statuses.
func (a *api) domainError(w http.ResponseWriter, err error, op string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		a.error(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, docstore.ErrNotFound):
		a.error(w, http.StatusNotFound, "resume not found")
	case errors.Is(err, docstore.ErrInvalidID):
		a.error(w, http.StatusBadRequest, "invalid resume id")
	case errors.Is(err, domain.ErrNoCandidates):
		a.error(w, http.StatusNotFound, "no consultants available")
	case errors.Is(err, domain.ErrBackendUnavailable):
		a.logger.Error("backend unavailable", "op", op, "err", err)
		a.error(w, http.StatusServiceUnavailable, "search backend unavailable")
	case errors.Is(err, domain.ErrProviderFailure):
		a.logger.Error("provider failure", "op", op, "err", err)
		a.error(w, http.StatusBadGateway, "language model unavailable")
	default:
		a.logger.Error("request failed", "op", op, "err", err)
		a.error(w, http.StatusInternalServerError, "internal server error")
	}
}
