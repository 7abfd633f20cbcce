package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/services"
	"github.com/prepview/prepview/internal/utils"
)

const maxAudioBytes = 10 << 20

type InterviewHandler struct {
	interviews services.InterviewService
	users      services.UserService
	speech     services.SpeechService
	log        *logrus.Logger
}

func NewInterviewHandler(interviews services.InterviewService, users services.UserService, speech services.SpeechService, log *logrus.Logger) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, users: users, speech: speech, log: log}
}

type StartInterviewRequest struct {
	Topic           string `json:"topic"`
	Difficulty      string `json:"difficulty"`
	CompanyStyle    string `json:"company_style"`
	DurationMinutes int    `json:"duration_minutes"`
	EnableTTS       bool   `json:"enable_tts"`
	ResumeText      string `json:"resume_text"`
	JobDescription  string `json:"job_description"`
}

func (h *InterviewHandler) Start(c *gin.Context) {
	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	res, err := h.interviews.Start(c.Request.Context(), optionalUserID(c), services.StartParams{
		Topic:           req.Topic,
		Difficulty:      req.Difficulty,
		CompanyStyle:    req.CompanyStyle,
		DurationMinutes: req.DurationMinutes,
		EnableTTS:       req.EnableTTS,
		ResumeText:      req.ResumeText,
		JobDescription:  req.JobDescription,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type TurnRequest struct {
	UtteranceText string `json:"utterance_text" binding:"required"`
}

type TurnResponse struct {
	*services.TurnResult
	AudioBase64 string `json:"audio_base64,omitempty"`
}

// Turn accepts either a JSON body with utterance_text or a multipart
// form with an "audio" file that is transcribed first.
func (h *InterviewHandler) Turn(c *gin.Context) {
	const op = "InterviewHandler.Turn"
	sessionID := c.Param("session_id")

	var text string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var ok bool
		text, ok = h.transcribeUpload(c)
		if !ok {
			return
		}
	} else {
		var req TurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
			return
		}
		text = req.UtteranceText
	}

	res, err := h.interviews.Turn(c.Request.Context(), sessionID, text)
	if err != nil {
		writeError(c, err)
		return
	}

	out := TurnResponse{TurnResult: res}
	if res.TTSEnabled && h.speech != nil {
		if audio, err := h.speech.Synthesize(c.Request.Context(), res.AIResponse, ""); err != nil {
			h.log.WithError(err).WithField("session_id", sessionID).Warn("reply synthesis failed")
		} else {
			out.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *InterviewHandler) transcribeUpload(c *gin.Context) (string, bool) {
	const op = "InterviewHandler.Turn"

	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err))
		return "", false
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio", err))
		return "", false
	}
	if len(audio) > maxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is too large", nil))
		return "", false
	}

	tr, err := h.speech.Transcribe(c.Request.Context(), audio, c.PostForm("language"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return tr.Text, true
}

type EndResponse struct {
	*services.EndResult
	Award *services.CompletionAward `json:"award,omitempty"`
}

func (h *InterviewHandler) End(c *gin.Context) {
	sessionID := c.Param("session_id")

	res, err := h.interviews.End(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := EndResponse{EndResult: res}
	if userID := optionalUserID(c); userID != nil && !res.IsGuest {
		award, err := h.users.CompleteInterview(c.Request.Context(), *userID, services.CompletionSummary{
			Topic:         res.TopicID,
			Difficulty:    res.Difficulty,
			Scores:        res.Scores.Individual,
			AverageScore:  res.Scores.Average,
			QuestionCount: res.TotalQuestions,
		})
		if err != nil {
			// the interview already ended; reporting a failed award as a
			// hard error would suggest otherwise
			h.log.WithError(err).WithField("session_id", sessionID).Error("xp award failed")
		} else {
			out.Award = award
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *InterviewHandler) Status(c *gin.Context) {
	res, err := h.interviews.Status(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InterviewHandler) Time(c *gin.Context) {
	res, err := h.interviews.Time(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InterviewHandler) Claim(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.interviews.Claim(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InterviewHandler) Export(c *gin.Context) {
	res, err := h.interviews.Export(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InterviewHandler) Feedback(c *gin.Context) {
	res, err := h.interviews.Feedback(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *InterviewHandler) Coaching(c *gin.Context) {
	res, err := h.interviews.Coaching(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
