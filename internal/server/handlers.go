package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rbright/intervu/internal/interview"
	"github.com/rbright/intervu/internal/store"
)

const maxAudioBytes = 32 << 20

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) userQuestions(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))

	set, err := s.store.LatestSet(c.Request.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		msg := "No questions found for the specified email"
		if email == "" {
			msg = "No default questions (N/A) found in database"
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No interview questions found", "message": msg})
		return
	}
	if err != nil {
		s.logger.Error("load interview set", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to process interview questions",
			"message": "An error occurred while processing your request",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": set, "message": "Interview questions retrieved successfully"})
}

type saveSetRequest struct {
	Email string        `json:"email"`
	Set   interview.Set `json:"set"`
}

func (s *Server) saveInterviewSet(c *gin.Context) {
	var req saveSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body: " + err.Error()})
		return
	}
	if len(req.Set.Questions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Interview set has no questions"})
		return
	}
	if err := req.Set.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := s.store.SaveSet(c.Request.Context(), req.Email, req.Set); err != nil {
		s.logger.Error("save interview set", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save interview set"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Interview set saved"})
}

func (s *Server) transcribeAudio(c *gin.Context) {
	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}
	defer file.Close()

	wav, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil || len(wav) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No audio file provided"})
		return
	}
	if s.transcriber == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transcribe audio: transcription is not configured"})
		return
	}

	ctx := c.Request.Context()
	if loc, err := s.archive.Store(ctx, wav); err != nil {
		s.logger.Warn("archive answer audio", "error", err.Error())
	} else if loc != "" {
		s.logger.Debug("archived answer audio", "location", loc)
	}

	text, err := s.transcriber.Transcribe(ctx, wav)
	if err != nil {
		s.logger.Error("transcribe audio", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transcribe audio: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcription": text})
}

// analyzeRequest leaves questions and responses nil when absent so presence can be checked.
type analyzeRequest struct {
	Email     string               `json:"email"`
	JobID     string               `json:"jobId"`
	Candidate interview.Candidate  `json:"candidateInfo"`
	Questions []interview.Question `json:"questions"`
	Responses []interview.Response `json:"responses"`
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields"})
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Questions == nil || req.Responses == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields"})
		return
	}

	fail := func(err error) {
		s.logger.Error("analyze interview", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to analyze interview: " + err.Error()})
	}
	if s.scorer == nil {
		fail(errors.New("scoring is not configured"))
		return
	}

	t := interview.Transcript{
		Email:     req.Email,
		JobID:     req.JobID,
		Candidate: req.Candidate,
		Questions: req.Questions,
		Responses: req.Responses,
	}
	ctx := c.Request.Context()
	analysis, err := s.scorer.Score(ctx, t)
	if err != nil {
		fail(err)
		return
	}

	savedAt := s.now().UTC()
	row, err := s.store.SaveResult(ctx, interview.NewResultSummary(t, analysis, savedAt))
	if err != nil {
		fail(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    interview.Scored{Analysis: analysis, AnalysisID: row.ID, SavedAt: savedAt},
	})
}

func (s *Server) getAnalyze(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Email parameter required"})
		return
	}

	rows, err := s.store.ListResults(c.Request.Context(), email, store.DefaultResultLimit)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("list results", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to fetch results"})
		return
	}
	if rows == nil {
		rows = []interview.ResultSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rows})
}
