package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"flightbot/services/dialog"
	"flightbot/services/speech"
	"flightbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	MaxDurationSeconds = 60              // 1 minute maximum
	MaxFileSize        = 5 * 1024 * 1024 // 5MB
	AllowedExtension   = ".wav"

	// MaxRequestSize caps the whole multipart body: the audio plus form overhead.
	MaxRequestSize = MaxFileSize + 1<<20
)

// VoiceHandler transcribes a recorded utterance and feeds it to the
// conversation as a message turn.
type VoiceHandler struct {
	Conversations *ConversationHandler
	Transcriber   speech.Transcriber
}

func NewVoiceHandler(conversations *ConversationHandler, transcriber speech.Transcriber) *VoiceHandler {
	return &VoiceHandler{Conversations: conversations, Transcriber: transcriber}
}

func (vh *VoiceHandler) PostVoice(c *gin.Context) {
	id := c.Param("id")

	if c.Request.ContentLength > MaxRequestSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "request too large",
			fmt.Sprintf("maximum size is %d bytes", MaxRequestSize))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestSize)

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.JSONError(c, http.StatusRequestEntityTooLarge, "request too large",
				fmt.Sprintf("maximum size is %d bytes", MaxRequestSize))
			return
		}
		utils.JSONError(c, http.StatusBadRequest, "audio file is required", err.Error())
		return
	}
	defer file.Close()
	language := c.DefaultPostForm("language", "en-US")

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != AllowedExtension {
		utils.JSONError(c, http.StatusBadRequest, "invalid file type",
			fmt.Sprintf("expected %s, got %s", AllowedExtension, ext))
		return
	}
	if header.Size > MaxFileSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "audio file too large",
			fmt.Sprintf("maximum size is %d bytes", MaxFileSize))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to read audio file", err.Error())
		return
	}
	if len(data) > MaxFileSize {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "audio file too large",
			fmt.Sprintf("maximum size is %d bytes", MaxFileSize))
		return
	}

	audio, duration, err := speech.ParseWAV(data)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "unsupported audio", err.Error())
		return
	}
	if duration > MaxDurationSeconds*time.Second {
		utils.JSONError(c, http.StatusBadRequest, "audio too long",
			fmt.Sprintf("maximum duration is %d seconds", MaxDurationSeconds))
		return
	}
	audio.Language = language

	transcript, err := vh.Transcriber.Transcribe(c.Request.Context(), audio)
	if err != nil {
		getLogger(c, vh.Conversations.Logger).Error("Speech recognition failed", zap.String("conversationId", id), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, speech.ErrUnsupportedAudio) {
			status = http.StatusBadRequest
		}
		utils.JSONError(c, status, "speech recognition failed", err.Error())
		return
	}
	if transcript == "" {
		utils.JSONError(c, http.StatusUnprocessableEntity, "no speech recognized", "")
		return
	}

	vh.Conversations.respond(c, id, dialog.Turn{Text: transcript}, transcript)
}
