package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"basegraph.app/leads/internal/http/dto"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/service"
)

type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) Append(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var req dto.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageService.Append(ctx, leadID, model.MessageRole(req.Role), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) List(c *gin.Context) {
	leadID, ok := leadIDParam(c)
	if !ok {
		return
	}

	msgs, err := h.messageService.List(c.Request.Context(), leadID)
	if err != nil {
		respondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}
