package services

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/extract"
	"github.com/prepview/prepview/internal/providers/llm"
	"github.com/prepview/prepview/internal/storage"
	"github.com/prepview/prepview/internal/utils"
)

const (
	maxResumeBytes = 200 << 10 // plain-text resumes only
	maxJDBytes     = 50 << 10
)

type ResumeAnalysis struct {
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	Analysis   string `json:"analysis"`
	StoredPath string `json:"stored_path,omitempty"`
}

type JobAnalysis struct {
	Analysis string `json:"analysis"`
}

// AnalysisService turns raw resume/job-description text into the
// structured context that session start consumes.
type AnalysisService interface {
	// ParseResume analyzes resume text and archives the original upload.
	// The analysis text carries NAME:/CURRENT_ROLE: marker lines so it
	// can be fed straight into a session start as resume context.
	ParseResume(ctx context.Context, filename string, data []byte) (*ResumeAnalysis, error)
	AnalyzeJob(ctx context.Context, description string) (*JobAnalysis, error)
}

type analysisService struct {
	llm      llm.Provider
	uploader storage.Uploader
	log      *logrus.Logger
}

// NewAnalysisService builds the resume/JD analyzer. uploader may be nil;
// resumes are then analyzed without being archived.
func NewAnalysisService(provider llm.Provider, uploader storage.Uploader, log *logrus.Logger) AnalysisService {
	return &analysisService{llm: provider, uploader: uploader, log: log}
}

func (s *analysisService) ParseResume(ctx context.Context, filename string, data []byte) (*ResumeAnalysis, error) {
	const op = "AnalysisService.ParseResume"

	if len(data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume file is empty", nil)
	}
	if len(data) > maxResumeBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume file is too large", nil)
	}

	prompt := fmt.Sprintf(`Analyze this resume and reply in exactly this format:

NAME: <candidate's full name, or Unknown>
CURRENT_ROLE: <their most recent role, or Unknown>

Then summarize in 4-6 bullet points: key skills, years of experience,
notable projects, and areas an interviewer should probe.

Resume:
%s`, truncate(string(data), resumeExcerptLimit))

	analysis, err := s.llm.Complete(ctx, "", []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "resume analysis failed", err)
	}

	out := &ResumeAnalysis{Analysis: analysis}
	if name, ok := extract.ResumeName(analysis); ok && name != "Unknown" {
		out.Name = name
	}
	if role, ok := extract.ResumeRole(analysis); ok && role != "Unknown" {
		out.Role = role
	}

	// archive is best-effort; analysis is already in hand
	if s.uploader != nil {
		object := "resumes/" + uuid.NewString() + path.Ext(filename)
		stored, err := s.uploader.Upload(ctx, object, "text/plain", bytes.NewReader(data))
		if err != nil {
			s.log.WithError(err).Warn("resume archive upload failed")
		} else {
			out.StoredPath = stored
		}
	}
	return out, nil
}

func (s *analysisService) AnalyzeJob(ctx context.Context, description string) (*JobAnalysis, error) {
	const op = "AnalysisService.AnalyzeJob"

	if description == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job description is required", nil)
	}
	if len(description) > maxJDBytes {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job description is too large", nil)
	}

	prompt := fmt.Sprintf(`Analyze this job description and list:
1. The 5 most important technical skills
2. Experience level expected
3. 3 interview questions likely to come up

Job description:
%s`, truncate(description, jdExcerptLimit))

	analysis, err := s.llm.Complete(ctx, "", []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "job analysis failed", err)
	}
	return &JobAnalysis{Analysis: analysis}, nil
}
