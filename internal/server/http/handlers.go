package internalhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/quiethours/scheduler/internal/storage"
	log "github.com/sirupsen/logrus"
)

type blockRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
}

func (s *Server) listBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := s.app.ListBlocks(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) createBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := s.app.CreateBlock(r.Context(), storage.Block{
		OwnerID:     ownerFromContext(r.Context()),
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) updateBlock(w http.ResponseWriter, r *http.Request) {
	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b, err := s.app.UpdateBlock(r.Context(), ownerFromContext(r.Context()), mux.Vars(r)["id"], storage.Block{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBlock(w http.ResponseWriter, r *http.Request) {
	if err := s.app.RemoveBlock(r.Context(), ownerFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runReminders(w http.ResponseWriter, r *http.Request) {
	if s.runSecret != "" && bearerToken(r) != s.runSecret {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := s.scanner.Run(r.Context())
	if err != nil {
		log.Errorf("reminder run failed: %v", err)
		writeErrorMessage(w, http.StatusInternalServerError, "failed to process reminders")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidBlock):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrBlockOverlap):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrNotFoundBlock):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	default:
		log.Errorf("request failed: %v", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
