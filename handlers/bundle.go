package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Conversation endpoints
	StartConversation gin.HandlerFunc
	PostActivity      gin.HandlerFunc
	ResetConversation gin.HandlerFunc

	// Voice endpoint; nil when speech recognition is not configured.
	PostVoice gin.HandlerFunc

	// Operational endpoints
	Health gin.HandlerFunc
}
