package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/benetrust/trustadmin-backend/internal/platform/apierr"
	"github.com/benetrust/trustadmin-backend/internal/platform/logger"
	"github.com/benetrust/trustadmin-backend/internal/requestdata"
	"github.com/benetrust/trustadmin-backend/internal/services"
	"github.com/benetrust/trustadmin-backend/internal/sse"
	"github.com/benetrust/trustadmin-backend/internal/wizard"
)

type FeedHandler struct {
	log        *logger.Logger
	registry   *wizard.Registry
	wizardSvc  services.WizardService
	feedSvc    services.FeedService
	mappingSvc services.MappingService
	parserSvc  services.ParserService
	reportSvc  services.ReportService
}

func NewFeedHandler(
	log *logger.Logger,
	registry *wizard.Registry,
	wizardSvc services.WizardService,
	feedSvc services.FeedService,
	mappingSvc services.MappingService,
	parserSvc services.ParserService,
	reportSvc services.ReportService,
) *FeedHandler {
	return &FeedHandler{
		log:        log.With("handler", "FeedHandler"),
		registry:   registry,
		wizardSvc:  wizardSvc,
		feedSvc:    feedSvc,
		mappingSvc: mappingSvc,
		parserSvc:  parserSvc,
		reportSvc:  reportSvc,
	}
}

func wizardIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("id is not a uuid"))
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/wizards/:id/files
func (h *FeedHandler) UploadFile(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	if _, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("multipart field \"file\" is required"))
		return
	}
	mime := fileHeader.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = mimeFromName(fileHeader.Filename)
	}

	src, err := fileHeader.Open()
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	defer src.Close()

	sf, err := h.parserSvc.Upload(c.Request.Context(), id, principal.UserID, fileHeader.Filename, mime, src, fileHeader.Size)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}

	inst, err := h.wizardSvc.UpdateInstanceData(c.Request.Context(), principal, id, wizard.DataPatch{
		UploadedFileID: &sf.ID,
	})
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": sf, "wizard": inst})
}

// DELETE /api/wizards/:id/files/:fileId
func (h *FeedHandler) DeleteFile(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("fileId is not a uuid"))
		return
	}
	inst, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	sf, err := h.parserSvc.GetFile(c.Request.Context(), fileID)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	if sf.WizardID != inst.ID {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, errors.New("file does not belong to this wizard"))
		return
	}

	if err := h.parserSvc.Delete(c.Request.Context(), nil, fileID); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	if _, err := h.wizardSvc.UpdateInstanceData(c.Request.Context(), principal, id, wizard.DataPatch{
		ClearUploadedFile: true,
	}); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/wizards/:id/files/:fileId/preview
func (h *FeedHandler) PreviewFile(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(c.Param("fileId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, errors.New("fileId is not a uuid"))
		return
	}
	inst, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	sf, err := h.parserSvc.GetFile(c.Request.Context(), fileID)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	if sf.WizardID != inst.ID {
		RespondError(c, http.StatusNotFound, apierr.CodeNotFound, errors.New("file does not belong to this wizard"))
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	result, err := h.parserSvc.Parse(c.Request.Context(), fileID, limit)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"rows": result.Rows, "column_count": result.ColumnCount})
}

// GET /api/wizards/:id/mapping/suggestion
func (h *FeedHandler) MappingSuggestion(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	inst, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	t, err := h.registry.Get(inst.Type)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}

	firstRow, err := h.firstRow(c, inst.ID, principal)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	suggestion, err := h.mappingSvc.Suggest(c.Request.Context(), principal.UserID, t, firstRow)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"suggestion": suggestion})
}

type saveMappingRequest struct {
	Mapping    map[int]string `json:"mapping" binding:"required"`
	HasHeaders *bool          `json:"has_headers"`
}

// PUT /api/wizards/:id/mapping
func (h *FeedHandler) SaveMapping(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	var req saveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidArgument, err)
		return
	}

	inst, err := h.wizardSvc.UpdateInstanceData(c.Request.Context(), principal, id, wizard.DataPatch{
		ColumnMapping: req.Mapping,
		HasHeaders:    req.HasHeaders,
	})
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}

	// Remember the choice for the next upload of this template.
	if firstRow, err := h.firstRow(c, inst.ID, principal); err == nil {
		if err := h.mappingSvc.Save(c.Request.Context(), principal.UserID, inst.Type, firstRow, req.Mapping); err != nil {
			h.log.Warn("Failed to memoize mapping", "error", err, "wizard_id", inst.ID)
		}
	}
	RespondOK(c, gin.H{"wizard": inst})
}

// POST /api/wizards/:id/validate
func (h *FeedHandler) Validate(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	// Preflight before the stream opens so auth and not-found keep their
	// proper statuses.
	if _, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	stream, err := sse.NewStream(c.Writer)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}

	results, err := h.feedSvc.Validate(c.Request.Context(), principal, id, func(p services.Progress) {
		_ = stream.Send(sse.EventProgress, p)
	})
	if err != nil {
		h.sendStreamError(stream, err)
		return
	}
	_ = stream.Send(sse.EventResult, results)
}

// POST /api/wizards/:id/process
func (h *FeedHandler) Process(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	if _, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	stream, err := sse.NewStream(c.Writer)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}

	results, err := h.feedSvc.Process(c.Request.Context(), principal, id, func(p services.Progress) {
		_ = stream.Send(sse.EventProgress, p)
	})
	if err != nil {
		h.sendStreamError(stream, err)
		return
	}
	_ = stream.Send(sse.EventResult, results)
}

// POST /api/wizards/:id/report
func (h *FeedHandler) GenerateReport(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	if _, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, id); err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	stream, err := sse.NewStream(c.Writer)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}

	results, err := h.reportSvc.Generate(c.Request.Context(), principal, id, func(p services.Progress) {
		_ = stream.Send(sse.EventProgress, p)
	})
	if err != nil {
		h.sendStreamError(stream, err)
		return
	}
	_ = stream.Send(sse.EventResult, results)
}

// GET /api/wizards/:id/report
func (h *FeedHandler) GetReport(c *gin.Context) {
	principal, ok := principalFrom(c)
	if !ok {
		return
	}
	id, ok := wizardIDParam(c)
	if !ok {
		return
	}
	rows, err := h.reportSvc.GetResults(c.Request.Context(), principal, id)
	if err != nil {
		RespondAPIError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"rows": rows})
}

// firstRow fetches the first parsed row of the wizard's uploaded file, the
// input to the header fingerprint.
func (h *FeedHandler) firstRow(c *gin.Context, wizardID uuid.UUID, principal requestdata.Principal) ([]string, error) {
	inst, err := h.wizardSvc.GetInstance(c.Request.Context(), principal, wizardID)
	if err != nil {
		return nil, err
	}
	var data struct {
		UploadedFileID *uuid.UUID `json:"uploaded_file_id"`
	}
	if len(inst.Data) > 0 {
		if err := json.Unmarshal(inst.Data, &data); err != nil {
			return nil, err
		}
	}
	if data.UploadedFileID == nil {
		return nil, apierr.BadRequest(apierr.CodeStepIncomplete, errors.New("no file uploaded"))
	}
	parsed, err := h.parserSvc.Parse(c.Request.Context(), *data.UploadedFileID, 1)
	if err != nil {
		return nil, err
	}
	if len(parsed.Rows) == 0 {
		return nil, apierr.BadRequest(apierr.CodeParseFailure, errors.New("uploaded file has no rows"))
	}
	return parsed.Rows[0], nil
}

func (h *FeedHandler) sendStreamError(stream *sse.Stream, err error) {
	ae := apierr.From(err)
	if ae.Code == apierr.CodeInternal {
		h.log.Error("Pipeline run failed", "error", err)
		_ = stream.Send(sse.EventError, gin.H{"code": ae.Code, "message": "internal error"})
		return
	}
	_ = stream.Send(sse.EventError, gin.H{"code": ae.Code, "message": ae.Error()})
}

func mimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return services.MimeCSV
	case ".xls":
		return services.MimeXLS
	case ".xlsx":
		return services.MimeXLSX
	default:
		return "application/octet-stream"
	}
}
