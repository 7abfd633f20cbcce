package services

import (
	"context"

	"github.com/prepview/prepview/internal/providers/stt"
	"github.com/prepview/prepview/internal/providers/tts"
	"github.com/prepview/prepview/internal/utils"
)

const defaultLanguage = "en-US"

type TranscriptionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// SpeechService fronts the speech providers for the voice-mode
// endpoints. Either provider may be absent; the endpoint then reports
// unavailable instead of failing at startup.
type SpeechService interface {
	Transcribe(ctx context.Context, audio []byte, language string) (*TranscriptionResult, error)
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

type speechService struct {
	stt stt.Provider
	tts tts.Provider
}

func NewSpeechService(sttProvider stt.Provider, ttsProvider tts.Provider) SpeechService {
	return &speechService{stt: sttProvider, tts: ttsProvider}
}

func (s *speechService) Transcribe(ctx context.Context, audio []byte, language string) (*TranscriptionResult, error) {
	const op = "SpeechService.Transcribe"

	if s.stt == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech recognition is not configured", nil)
	}
	if len(audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio payload is empty", nil)
	}
	if language == "" {
		language = defaultLanguage
	}

	text, confidence, err := s.stt.Transcribe(ctx, audio, language)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "transcription failed", err)
	}
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "no speech detected", nil)
	}
	return &TranscriptionResult{Text: text, Confidence: confidence}, nil
}

func (s *speechService) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	const op = "SpeechService.Synthesize"

	if s.tts == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "speech synthesis is not configured", nil)
	}
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}
	if language == "" {
		language = defaultLanguage
	}

	audio, err := s.tts.Synthesize(ctx, text, language)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "synthesis failed", err)
	}
	return audio, nil
}
