package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"resumerag/internal/domain"
)

type handlers struct {
	svc    Service
	logger *slog.Logger
}

type IngestRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type IngestResponse struct {
	Name     string   `json:"name"`
	ChunkIDs []string `json:"chunk_ids"`
}

type AnswerRequest struct {
	Question string        `json:"question"`
	History  []domain.Turn `json:"history,omitempty"`
}

type AnswerResponse struct {
	Answer string `json:"answer"`
}

type JobRequest struct {
	JobDescription string   `json:"job_description"`
	Documents      []string `json:"documents,omitempty"`
}

type CompareResponse struct {
	Report string `json:"report"`
}

type DeleteResponse struct {
	Name    string `json:"name"`
	Removed int    `json:"removed"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "path", r.URL.Path, "request_id", GetRequestID(r.Context()), "error", err)
	HandleError(w, err)
}

func (h *handlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, http.StatusOK, names)
}

func (h *handlers) ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ids, err := h.svc.Ingest(r.Context(), req.Name, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	Success(w, http.StatusCreated, IngestResponse{Name: req.Name, ChunkIDs: ids})
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	n, err := h.svc.DeleteDocument(r.Context(), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if n == 0 {
		Error(w, http.StatusNotFound, "document not found")
		return
	}
	Success(w, http.StatusOK, DeleteResponse{Name: name, Removed: n})
}

func (h *handlers) answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.svc.Answer(r.Context(), req.Question, req.History...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, http.StatusOK, AnswerResponse{Answer: answer})
}

func (h *handlers) jobRequest(w http.ResponseWriter, r *http.Request) (JobRequest, bool) {
	var req JobRequest
	if !decode(w, r, &req) {
		return req, false
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		Error(w, http.StatusBadRequest, "job_description is required")
		return req, false
	}
	return req, true
}

func (h *handlers) screen(w http.ResponseWriter, r *http.Request) {
	req, ok := h.jobRequest(w, r)
	if !ok {
		return
	}

	results, err := h.svc.Screen(r.Context(), req.JobDescription, req.Documents)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, http.StatusOK, results)
}

func (h *handlers) compare(w http.ResponseWriter, r *http.Request) {
	req, ok := h.jobRequest(w, r)
	if !ok {
		return
	}

	report, err := h.svc.Compare(r.Context(), req.JobDescription, req.Documents)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, http.StatusOK, CompareResponse{Report: report})
}
