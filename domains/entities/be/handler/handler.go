package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/troveworks/trove-crm/domains/entities/be/service"
	platformlogging "github.com/troveworks/trove-crm/platform/go/logging"
	"github.com/troveworks/trove-crm/platform/go/tenant"
	"github.com/troveworks/trove-crm/platform/go/validation"
)

const (
	problemTypeValidation = "https://trove.works/problems/validation-error"
	problemTypeNotFound   = "https://trove.works/problems/not-found"
	problemTypeInternal   = "https://trove.works/problems/internal-error"
)

type problem struct {
	Type   string                  `json:"type"`
	Title  string                  `json:"title"`
	Status int                     `json:"status"`
	Detail string                  `json:"detail,omitempty"`
	Errors []validation.FieldError `json:"errors,omitempty"`
}

// Handler wires the entities service to the CRM records HTTP surface.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("entities service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the record endpoints. Tenant middleware must run upstream.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{entityType}", h.listRecords)
	r.Post("/{entityType}", h.createRecord)
	r.Get("/{entityType}/{recordID}", h.getRecord)
	r.Patch("/{entityType}/{recordID}", h.updateRecord)
	r.Delete("/{entityType}/{recordID}", h.deleteRecord)

	return r
}

type createRecordRequest struct {
	Name         string         `json:"name"`
	Type         *string        `json:"type,omitempty"`
	Status       *string        `json:"status,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

type updateRecordRequest struct {
	Name         *string        `json:"name,omitempty"`
	Type         *string        `json:"type,omitempty"`
	Status       *string        `json:"status,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	limit := queryInt(r, "limit")
	offset := queryInt(r, "offset")

	result, err := h.svc.ListRecords(r.Context(), identity.TenantID, chi.URLParam(r, "entityType"), service.ListRecordsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": result.Records, "total": result.Total})
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	var body createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", err.Error())
		return
	}

	record, err := h.svc.CreateRecord(r.Context(), identity.TenantID, chi.URLParam(r, "entityType"), service.CreateRecordInput{
		Name:         body.Name,
		CatalogType:  body.Type,
		QuoteStatus:  body.Status,
		CustomFields: body.CustomFields,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid record id", err.Error())
		return
	}

	record, err := h.svc.GetRecord(r.Context(), identity.TenantID, chi.URLParam(r, "entityType"), recordID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid record id", err.Error())
		return
	}

	var body updateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", err.Error())
		return
	}

	record, err := h.svc.UpdateRecord(r.Context(), identity.TenantID, chi.URLParam(r, "entityType"), recordID, service.UpdateRecordInput{
		Name:         body.Name,
		CatalogType:  body.Type,
		QuoteStatus:  body.Status,
		CustomFields: body.CustomFields,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid record id", err.Error())
		return
	}

	if err := h.svc.DeleteRecord(r.Context(), identity.TenantID, chi.URLParam(r, "entityType"), recordID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.writeJSON(w, http.StatusBadRequest, problem{
			Type:   problemTypeValidation,
			Title:  "Validation failed",
			Status: http.StatusBadRequest,
			Errors: validationErr.Errors,
		})
	case errors.Is(err, service.ErrRecordNotFound):
		h.writeProblem(w, http.StatusNotFound, problemTypeNotFound, "Not found", err.Error())
	default:
		platformlogging.FromRequest(r, h.logger).Error("record request failed", zap.Error(err))
		h.writeProblem(w, http.StatusInternalServerError, problemTypeInternal, "Internal error", "")
	}
}

func (h *Handler) writeProblem(w http.ResponseWriter, status int, problemType, title, detail string) {
	h.writeJSON(w, status, problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func queryInt(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
