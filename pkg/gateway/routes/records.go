package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/verident/registry/pkg/common/logger"
	"github.com/verident/registry/pkg/common/models"
	"github.com/verident/registry/pkg/gateway/middleware"
	"github.com/verident/registry/pkg/records"
)

// RecordService is what the record routes need from the record workflow.
type RecordService interface {
	List(ctx context.Context) ([]models.Record, error)
	Get(ctx context.Context, id string) (models.Record, error)
	Create(ctx context.Context, actor string, req models.CreateRecordRequest) (models.Record, error)
	Update(ctx context.Context, actor, id string, req models.UpdateRecordRequest) (models.Record, error)
	Delete(ctx context.Context, actor, id string) error
	Stats(ctx context.Context) (models.RecordStats, error)
}

type RecordsHandler struct {
	service RecordService
}

func NewRecordsHandler(service RecordService) *RecordsHandler {
	return &RecordsHandler{service: service}
}

// Register expects a router already behind the access gate.
func (h *RecordsHandler) Register(r *mux.Router) {
	r.HandleFunc("/records", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/records", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/records/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/records/{id}", h.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/records/{id}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
}

func (h *RecordsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "Error fetching records")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *RecordsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, err, "Error fetching record")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *RecordsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.service.Create(r.Context(), actorFrom(r), req)
	if err != nil {
		h.respondServiceError(w, err, "Error creating record")
		return
	}
	respondJSON(w, http.StatusCreated, record)
}

func (h *RecordsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.service.Update(r.Context(), actorFrom(r), mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, err, "Error updating record")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (h *RecordsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, err, "Error deleting record")
		return
	}
	respondJSON(w, http.StatusOK, models.MessageResponse{Message: "Record deleted successfully"})
}

func (h *RecordsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "Error fetching statistics")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// respondServiceError translates workflow errors to statuses: malformed and
// missing ids both collapse to 404, validation and ssn conflicts to 400,
// everything else (including a disconnected store) to 500 with a generic
// message.
func (h *RecordsHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, records.ErrInvalidID), errors.Is(err, records.ErrRecordNotFound):
		respondError(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, records.ErrValidation), errors.Is(err, records.ErrSSNAlreadyExists):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Log.WithError(err).Error(fallback)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

func actorFrom(r *http.Request) string {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		return claims.UserID.String()
	}
	return ""
}
