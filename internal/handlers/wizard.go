package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/repos"
	"github.com/benetrust/trustadmin-backend/internal/services"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

type WizardHandler struct {
	log       *logger.Logger
	registry  *wizard.Registry
	wizardSvc services.WizardService
}

func NewWizardHandler(log *logger.Logger, registry *wizard.Registry, wizardSvc services.WizardService) *WizardHandler {
	return &WizardHandler{
		log:       log.With("handler", "WizardHandler"),
		registry:  registry,
		wizardSvc: wizardSvc,
	}
}

// GET /api/wizard-types
func (h *WizardHandler) ListTypes(c *gin.Context) {
	RespondOK(c, gin.H{"wizard_types": h.registry.All()})
}

// GET /api/wizard-types/:name
func (h *WizardHandler) GetType(c *gin.Context) {
	t, err := h.registry.Get(c.Param("name"))
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"wizard_type": t})
}

type createWizardRequest struct {
	Type            string         `json:"type" binding:"required"`
	EntityID        *uuid.UUID     `json:"entity_id"`
	LaunchArguments map[string]any `json:"launch_arguments"`
}

// POST /api/wizards
func (h *WizardHandler) Create(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	var req createWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, err)
		return
	}
	inst, err := h.wizardSvc.CreateInstance(c.Request.Context(), principal, services.CreateInstanceRequest{
		Type:            req.Type,
		EntityID:        req.EntityID,
		LaunchArguments: req.LaunchArguments,
	})
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wizard": inst})
}

// GET /api/wizards
func (h *WizardHandler) List(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	filter := repos.WizardInstanceFilter{Type: c.Query("type")}
	if raw := c.Query("entity_id"); raw != "" {
		entityID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("entity_id is not a uuid"))
			return
		}
		filter.EntityID = &entityID
	}
	instances, err := h.wizardSvc.ListInstances(c.Request.Context(), principal, filter)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"wizards": instances})
}

// GET /api/wizards/:id
func (h *WizardHandler) Get(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("id is not a uuid"))
		return
	}
	inst, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"wizard": inst})
}

type updateWizardRequest struct {
	Mode              *string        `json:"mode"`
	UploadedFileID    *uuid.UUID     `json:"uploaded_file_id"`
	ClearUploadedFile bool           `json:"clear_uploaded_file"`
	ColumnMapping     map[int]string `json:"column_mapping"`
	HasHeaders        *bool          `json:"has_headers"`
	LaunchArguments   map[string]any `json:"launch_arguments"`
}

// PATCH /api/wizards/:id
func (h *WizardHandler) Update(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("id is not a uuid"))
		return
	}
	var req updateWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, err)
		return
	}
	inst, err := h.wizardSvc.UpdateInstanceData(c.Request.Context(), principal, id, wizard.DataPatch{
		Mode:              req.Mode,
		UploadedFileID:    req.UploadedFileID,
		ClearUploadedFile: req.ClearUploadedFile,
		ColumnMapping:     req.ColumnMapping,
		HasHeaders:        req.HasHeaders,
		LaunchArguments:   req.LaunchArguments,
	})
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"wizard": inst})
}

// DELETE /api/wizards/:id
func (h *WizardHandler) Delete(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("id is not a uuid"))
		return
	}
	if err := h.wizardSvc.DeleteInstance(c.Request.Context(), principal, id); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type advanceRequest struct {
	Payload map[string]any `json:"payload"`
}

// POST /api/wizards/:id/advance
func (h *WizardHandler) Advance(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("id is not a uuid"))
		return
	}
	var req advanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, err)
			return
		}
	}
	inst, err := h.wizardSvc.Advance(c.Request.Context(), principal, id, req.Payload)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"wizard": inst})
}

// POST /api/wizards/:id/retreat
func (h *WizardHandler) Retreat(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("id is not a uuid"))
		return
	}
	inst, err := h.wizardSvc.Retreat(c.Request.Context(), principal, id)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"wizard": inst})
}
