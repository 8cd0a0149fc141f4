package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mengzhisuoliu/easyVoice/internal/domain/generate"
	"github.com/mengzhisuoliu/easyVoice/internal/domain/tts"
	"github.com/mengzhisuoliu/easyVoice/internal/platform/logging"
)

// Generator is the orchestrator seam the handlers call into.
type Generator interface {
	Generate(ctx context.Context, req generate.Request, onProgress generate.ProgressFunc) (*generate.Result, error)
}

// TTSHandler exposes the narration endpoints.
type TTSHandler struct {
	generator Generator
	tracker   *ProgressTracker
	logger    *logging.Logger
}

func NewTTSHandler(generator Generator, tracker *ProgressTracker, logger *logging.Logger) *TTSHandler {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &TTSHandler{generator: generator, tracker: tracker, logger: logger}
}

type generateRequest struct {
	Text   string `json:"text" binding:"required"`
	Voice  string `json:"voice" binding:"required"`
	Rate   string `json:"rate"`
	Pitch  string `json:"pitch"`
	Volume string `json:"volume"`
	UseLLM bool   `json:"useLLM"`
}

// Generate handles POST /api/v1/tts/generate.
func (h *TTSHandler) Generate(c *gin.Context) {
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", gin.H{"error": err.Error()})
		return
	}

	taskID := uuid.NewString()
	result, err := h.generator.Generate(c.Request.Context(), generate.Request{
		Text:   body.Text,
		Voice:  body.Voice,
		Rate:   body.Rate,
		Pitch:  body.Pitch,
		Volume: body.Volume,
		UseLLM: body.UseLLM,
		TaskID: taskID,
	}, nil)
	if err != nil {
		h.logger.ErrorTag("API", "generate task %s failed: %v", taskID, err)
		respondError(c, statusFor(err), err.Error(), gin.H{"id": taskID})
		return
	}

	respondSuccess(c, http.StatusOK, result, "")
}

// Voices handles GET /api/v1/tts/voices.
func (h *TTSHandler) Voices(c *gin.Context) {
	respondSuccess(c, http.StatusOK, tts.Voices, "")
}

// Task handles GET /api/v1/tts/task/:id.
func (h *TTSHandler) Task(c *gin.Context) {
	taskID := c.Param("id")
	percent, ok := h.tracker.Percent(taskID)
	if !ok {
		respondError(c, http.StatusNotFound, "unknown task", nil)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": taskID, "progress": percent}, "")
}
