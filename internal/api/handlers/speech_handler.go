package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepview/prepview/internal/services"
	"github.com/prepview/prepview/internal/utils"
)

const maxResumeUploadBytes = 5 << 20

type SpeechHandler struct {
	speech   services.SpeechService
	analysis services.AnalysisService
}

func NewSpeechHandler(speech services.SpeechService, analysis services.AnalysisService) *SpeechHandler {
	return &SpeechHandler{speech: speech, analysis: analysis}
}

type SynthesizeRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
}

// Synthesize returns WAV audio for the given text.
func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SpeechHandler.Synthesize", "invalid request body", err))
		return
	}

	audio, err := h.speech.Synthesize(c.Request.Context(), req.Text, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/wav", audio)
}

func (h *SpeechHandler) Transcribe(c *gin.Context) {
	const op = "SpeechHandler.Transcribe"

	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio", err))
		return
	}
	if len(audio) > maxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is too large", nil))
		return
	}

	tr, err := h.speech.Transcribe(c.Request.Context(), audio, c.PostForm("language"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

func (h *SpeechHandler) ParseResume(c *gin.Context) {
	const op = "SpeechHandler.ParseResume"

	file, header, err := c.Request.FormFile("resume")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "resume file is required", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxResumeUploadBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read resume", err))
		return
	}
	if len(data) > maxResumeUploadBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "resume file is too large", nil))
		return
	}

	res, err := h.analysis.ParseResume(c.Request.Context(), header.Filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type AnalyzeJobRequest struct {
	Description string `json:"description" binding:"required"`
}

func (h *SpeechHandler) AnalyzeJob(c *gin.Context) {
	var req AnalyzeJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SpeechHandler.AnalyzeJob", "invalid request body", err))
		return
	}

	res, err := h.analysis.AnalyzeJob(c.Request.Context(), req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
