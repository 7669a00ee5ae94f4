package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/leads/common/id"
	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/internal/http/dto"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/reconcile"
	"basegraph.app/leads/internal/service"
)

type LeadHandler struct {
	leadService service.LeadService
}

func NewLeadHandler(leadService service.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

func (h *LeadHandler) List(c *gin.Context) {
	leads, err := h.leadService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	c.JSON(http.StatusOK, leads)
}

func (h *LeadHandler) Get(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	lead, err := h.leadService.Get(c.Request.Context(), leadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *LeadHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.leadService.Create(ctx, req.ToParams())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *LeadHandler) Update(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{LeadID: logger.Ptr(leadID)})

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch, err := reconcile.ParsePatch(body)
	if err != nil {
		slog.WarnContext(ctx, "rejected lead patch", "error", err)
		respondError(c, err)
		return
	}

	lead, err := h.leadService.Update(ctx, leadID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// MissingID answers PATCH on the collection path.
func (h *LeadHandler) MissingID(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msgLeadIDRequired})
}

// leadIDParam parses the :id path parameter. An id that cannot be parsed
// cannot name a lead, so it is reported as not found.
func leadIDParam(c *gin.Context) (int64, bool) {
	leadID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": msgLeadNotFound})
		return 0, false
	}
	return leadID, true
}
