// Package interview holds the data exchanged between the session owner and its collaborators.
package interview

import (
	"fmt"
	"strings"
	"time"
)

const (
	// SkippedAnswer is recorded when a question is skipped without any transcript.
	SkippedAnswer = "[Skipped]"
	// NoAnswer stands in for a question that has no response at all.
	NoAnswer = "[No answer provided]"
	// DefaultEmail is the question-bank key used when no candidate email is given.
	DefaultEmail = "N/A"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Recommendation string

const (
	RecommendationHire     Recommendation = "Hire"
	RecommendationConsider Recommendation = "Consider"
	RecommendationReject   Recommendation = "Reject"
)

// Question is one prompt from the question bank. Order within a Set is significant.
type Question struct {
	ID         string     `json:"id" yaml:"id" firestore:"id"`
	Text       string     `json:"question" yaml:"question" firestore:"question"`
	Category   string     `json:"category,omitempty" yaml:"category" firestore:"category"`
	Difficulty Difficulty `json:"difficulty,omitempty" yaml:"difficulty" firestore:"difficulty"`
}

// Candidate is the metadata delivered alongside the questions.
type Candidate struct {
	Name            string `json:"name,omitempty"`
	Position        string `json:"position,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
	TotalDuration   int    `json:"totalDuration,omitempty"`
}

// Set is the question-bank payload for one candidate.
type Set struct {
	Questions       []Question `json:"questions" yaml:"questions" firestore:"questions"`
	CandidateName   string     `json:"candidateName,omitempty" yaml:"candidate_name" firestore:"candidateName"`
	Position        string     `json:"position,omitempty" yaml:"position" firestore:"position"`
	ExperienceLevel string     `json:"experienceLevel,omitempty" yaml:"experience_level" firestore:"experienceLevel"`
	TotalDuration   int        `json:"totalDuration,omitempty" yaml:"total_duration" firestore:"totalDuration"`
}

// Candidate extracts candidate metadata from the set.
func (s Set) Candidate() Candidate {
	return Candidate{
		Name:            s.CandidateName,
		Position:        s.Position,
		ExperienceLevel: s.ExperienceLevel,
		TotalDuration:   s.TotalDuration,
	}
}

// Validate checks that every question carries an id and text and that ids are unique.
func (s Set) Validate() error {
	seen := make(map[string]struct{}, len(s.Questions))
	for i, q := range s.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("question %d has no id", i+1)
		}
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %q has no text", q.ID)
		}
		if _, ok := seen[q.ID]; ok {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		switch q.Difficulty {
		case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			return fmt.Errorf("question %q has unknown difficulty %q", q.ID, q.Difficulty)
		}
	}
	return nil
}

// Response is the candidate's answer to one question.
type Response struct {
	QuestionID string    `json:"questionId"`
	Question   string    `json:"question"`
	Answer     string    `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
	// Skipped marks any skip, including one that kept a partial transcript as Answer.
	Skipped    bool      `json:"skipped,omitempty"`
}

// Transcript is the full ordered question and response history of one session.
type Transcript struct {
	Email     string     `json:"email"`
	JobID     string     `json:"jobId,omitempty"`
	Candidate Candidate  `json:"candidateInfo"`
	Questions []Question `json:"questions"`
	Responses []Response `json:"responses"`
}

// AnswerFor returns the recorded answer for a question id, or NoAnswer.
func (t Transcript) AnswerFor(questionID string) string {
	for _, r := range t.Responses {
		if r.QuestionID == questionID {
			return r.Answer
		}
	}
	return NoAnswer
}

// Backup is the basic result snapshot written on every completed session.
type Backup struct {
	Email          string     `json:"email"`
	JobID          string     `json:"jobId,omitempty"`
	Candidate      Candidate  `json:"candidateInfo"`
	Questions      []Question `json:"questions"`
	Responses      []Response `json:"responses"`
	CompletedAt    time.Time  `json:"completedAt"`
	TotalQuestions int        `json:"totalQuestions"`
	TotalResponses int        `json:"totalResponses"`
}

// NewBackup snapshots a transcript at completion time.
func NewBackup(t Transcript, completedAt time.Time) Backup {
	return Backup{
		Email:          t.Email,
		JobID:          t.JobID,
		Candidate:      t.Candidate,
		Questions:      t.Questions,
		Responses:      t.Responses,
		CompletedAt:    completedAt,
		TotalQuestions: len(t.Questions),
		TotalResponses: len(t.Responses),
	}
}
