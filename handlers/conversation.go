package handlers

import (
	"context"
	"net/http"

	"flightbot/models"
	"flightbot/services/dialog"
	"flightbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConversationService is the dialog engine behind the conversation endpoints.
type ConversationService interface {
	Start(ctx context.Context) (string, []models.Activity, error)
	Handle(ctx context.Context, id string, turn dialog.Turn) ([]models.Activity, error)
	Reset(ctx context.Context, id string) error
}

type ConversationHandler struct {
	Service ConversationService
	Logger  *zap.Logger
}

func NewConversationHandler(svc ConversationService, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{Service: svc, Logger: logger}
}

// StartConversation opens a new conversation and returns the welcome prompt.
func (ch *ConversationHandler) StartConversation(c *gin.Context) {
	id, activities, err := ch.Service.Start(c.Request.Context())
	if err != nil {
		getLogger(c, ch.Logger).Error("Failed to start conversation", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to start conversation", err.Error())
		return
	}
	c.JSON(http.StatusCreated, models.ConversationResponse{ConversationID: id, Activities: activities})
}

// PostActivity feeds one user message or card selection into the conversation.
func (ch *ConversationHandler) PostActivity(c *gin.Context) {
	id := c.Param("id")

	var req models.TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid activity", err.Error())
		return
	}

	var turn dialog.Turn
	switch req.Type {
	case models.TurnSelection:
		selected := ""
		if req.Value != nil {
			selected = req.Value.SelectedFlight
		}
		turn.Selection = &selected
	default:
		turn.Text = req.Text
	}

	ch.respond(c, id, turn, "")
}

// ResetConversation discards any state held for the conversation.
func (ch *ConversationHandler) ResetConversation(c *gin.Context) {
	id := c.Param("id")
	if err := ch.Service.Reset(c.Request.Context(), id); err != nil {
		getLogger(c, ch.Logger).Error("Failed to reset conversation", zap.String("conversationId", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to reset conversation", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

func (ch *ConversationHandler) respond(c *gin.Context, id string, turn dialog.Turn, transcript string) {
	activities, err := ch.Service.Handle(c.Request.Context(), id, turn)
	if err != nil {
		getLogger(c, ch.Logger).Error("Failed to handle turn", zap.String("conversationId", id), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to handle turn", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.ConversationResponse{
		ConversationID: id,
		Activities:     activities,
		Transcript:     transcript,
	})
}
