package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/troveworks/trove-crm/domains/customfields/be/service"
	platformlogging "github.com/troveworks/trove-crm/platform/go/logging"
	"github.com/troveworks/trove-crm/platform/go/tenant"
)

const (
	problemTypeValidation = "https://trove.works/problems/validation-error"
	problemTypeNotFound   = "https://trove.works/problems/not-found"
	problemTypeConflict   = "https://trove.works/problems/conflict"
	problemTypeInternal   = "https://trove.works/problems/internal-error"
)

// problem follows RFC 7807 so the settings UI can render errors uniformly.
type problem struct {
	Type   string         `json:"type"`
	Title  string         `json:"title"`
	Status int            `json:"status"`
	Detail string         `json:"detail,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Handler wires the custom fields service to the settings HTTP surface.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("custom fields service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the settings endpoints. Tenant middleware must run upstream.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/entity-types/{entityType}/fields", h.listFields)
	r.Post("/entity-types/{entityType}/fields", h.createField)
	r.Patch("/fields/{fieldID}", h.updateField)
	r.Delete("/fields/{fieldID}", h.archiveField)

	r.Get("/option-sets", h.listOptionSets)
	r.Post("/option-sets", h.createOptionSet)
	r.Get("/option-sets/by-name/{name}", h.getOptionSet)
	r.Post("/option-sets/{optionSetID}/options", h.addOption)
	r.Patch("/option-sets/{optionSetID}/options/{optionID}", h.updateOption)
	r.Delete("/option-sets/{optionSetID}/options/{optionID}", h.archiveOption)

	return r
}

type createFieldRequest struct {
	FieldKey     string          `json:"fieldKey"`
	Label        string          `json:"label"`
	Description  *string         `json:"description,omitempty"`
	DataType     string          `json:"dataType"`
	Required     bool            `json:"required"`
	Searchable   bool            `json:"searchable"`
	OptionSetID  *uuid.UUID      `json:"optionSetId,omitempty"`
	DefaultValue json.RawMessage `json:"defaultValue,omitempty"`
	UIConfig     json.RawMessage `json:"uiConfig,omitempty"`
}

type updateFieldRequest struct {
	Label        *string         `json:"label,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Required     *bool           `json:"required,omitempty"`
	Searchable   *bool           `json:"searchable,omitempty"`
	OptionSetID  *uuid.UUID      `json:"optionSetId,omitempty"`
	DefaultValue json.RawMessage `json:"defaultValue,omitempty"`
	UIConfig     json.RawMessage `json:"uiConfig,omitempty"`
}

type createOptionSetRequest struct {
	Name       string  `json:"name"`
	EntityType *string `json:"entityType,omitempty"`
}

type addOptionRequest struct {
	OptionKey   string  `json:"optionKey"`
	Label       string  `json:"label"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

type updateOptionRequest struct {
	Label       *string `json:"label,omitempty"`
	Description *string `json:"description,omitempty"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

func (h *Handler) listFields(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	fields, err := h.svc.ListFields(r.Context(), identity.TenantID, chi.URLParam(r, "entityType"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": fields})
}

func (h *Handler) createField(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	var body createFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", err.Error())
		return
	}

	field, err := h.svc.CreateField(r.Context(), identity.TenantID, service.CreateFieldInput{
		EntityType:   chi.URLParam(r, "entityType"),
		FieldKey:     body.FieldKey,
		Label:        body.Label,
		Description:  body.Description,
		DataType:     body.DataType,
		Required:     body.Required,
		Searchable:   body.Searchable,
		OptionSetID:  body.OptionSetID,
		DefaultValue: body.DefaultValue,
		UIConfig:     body.UIConfig,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, field)
}

func (h *Handler) updateField(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	fieldID, err := uuid.Parse(chi.URLParam(r, "fieldID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid field id", err.Error())
		return
	}

	var body updateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", err.Error())
		return
	}

	field, err := h.svc.UpdateField(r.Context(), identity.TenantID, fieldID, service.UpdateFieldInput{
		Label:        body.Label,
		Description:  body.Description,
		Required:     body.Required,
		Searchable:   body.Searchable,
		OptionSetID:  body.OptionSetID,
		DefaultValue: body.DefaultValue,
		UIConfig:     body.UIConfig,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, field)
}

func (h *Handler) archiveField(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	fieldID, err := uuid.Parse(chi.URLParam(r, "fieldID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid field id", err.Error())
		return
	}

	if err := h.svc.ArchiveField(r.Context(), identity.TenantID, fieldID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listOptionSets(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	sets, err := h.svc.ListOptionSets(r.Context(), identity.TenantID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"items": sets})
}

func (h *Handler) getOptionSet(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	set, err := h.svc.GetOptionSet(r.Context(), identity.TenantID, chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, set)
}

func (h *Handler) createOptionSet(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	var body createOptionSetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", err.Error())
		return
	}

	set, err := h.svc.CreateOptionSet(r.Context(), identity.TenantID, service.CreateOptionSetInput{
		Name:       body.Name,
		EntityType: body.EntityType,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, set)
}

func (h *Handler) addOption(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	optionSetID, err := uuid.Parse(chi.URLParam(r, "optionSetID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid option set id", err.Error())
		return
	}

	var body addOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", err.Error())
		return
	}

	option, err := h.svc.AddOption(r.Context(), identity.TenantID, optionSetID, service.AddOptionInput{
		OptionKey:   body.OptionKey,
		Label:       body.Label,
		Description: body.Description,
		SortOrder:   body.SortOrder,
		IsActive:    body.IsActive,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, option)
}

func (h *Handler) updateOption(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	optionSetID, err := uuid.Parse(chi.URLParam(r, "optionSetID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid option set id", err.Error())
		return
	}

	optionID, err := uuid.Parse(chi.URLParam(r, "optionID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid option id", err.Error())
		return
	}

	var body updateOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", err.Error())
		return
	}

	option, err := h.svc.UpdateOption(r.Context(), identity.TenantID, optionSetID, optionID, service.UpdateOptionInput{
		Label:       body.Label,
		Description: body.Description,
		SortOrder:   body.SortOrder,
		IsActive:    body.IsActive,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, option)
}

func (h *Handler) archiveOption(w http.ResponseWriter, r *http.Request) {
	identity, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeProblem(w, http.StatusUnauthorized, problemTypeValidation, "Tenant required", "")
		return
	}

	optionSetID, err := uuid.Parse(chi.URLParam(r, "optionSetID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid option set id", err.Error())
		return
	}

	optionID, err := uuid.Parse(chi.URLParam(r, "optionID"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid option id", err.Error())
		return
	}

	if err := h.svc.ArchiveOption(r.Context(), identity.TenantID, optionSetID, optionID); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fields := make(map[string]any, len(validationErr.Fields))
		for key, messages := range validationErr.Fields {
			fields[key] = messages
		}
		h.writeJSON(w, http.StatusBadRequest, problem{
			Type:   problemTypeValidation,
			Title:  "Validation failed",
			Status: http.StatusBadRequest,
			Fields: fields,
		})
	case errors.Is(err, service.ErrFieldNotFound),
		errors.Is(err, service.ErrOptionSetNotFound),
		errors.Is(err, service.ErrOptionNotFound):
		h.writeProblem(w, http.StatusNotFound, problemTypeNotFound, "Not found", err.Error())
	case errors.Is(err, service.ErrFieldConflict),
		errors.Is(err, service.ErrOptionSetConflict),
		errors.Is(err, service.ErrOptionConflict):
		h.writeProblem(w, http.StatusConflict, problemTypeConflict, "Conflict", err.Error())
	default:
		platformlogging.FromRequest(r, h.logger).Error("settings request failed", zap.Error(err))
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
