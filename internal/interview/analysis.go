package interview

import (
	"fmt"
	"time"
)

// Analysis is the structured assessment returned by the scoring collaborator.
type Analysis struct {
	OverallScore       float64          `json:"overallScore"`
	TechnicalScore     float64          `json:"technicalScore"`
	CommunicationScore float64          `json:"communicationScore"`
	Recommendation     Recommendation   `json:"recommendation"`
	FinalFeedback      string           `json:"finalFeedback"`
	DetailedFeedback   DetailedFeedback `json:"detailedFeedback"`
	ScoreBreakdown     ScoreBreakdown   `json:"scoreBreakdown"`
	NextSteps          string           `json:"nextSteps,omitempty"`
}

type DetailedFeedback struct {
	Strengths             []string `json:"strengths"`
	Weaknesses            []string `json:"weaknesses"`
	TechnicalAnalysis     string   `json:"technicalAnalysis"`
	CommunicationAnalysis string   `json:"communicationAnalysis"`
	CulturalFit           string   `json:"culturalFit"`
	SpecificInsights      []string `json:"specificInsights"`
}

type ScoreBreakdown struct {
	Technical      float64 `json:"technical"`
	Communication  float64 `json:"communication"`
	ProblemSolving float64 `json:"problemSolving"`
	Experience     float64 `json:"experience"`
}

// Validate enforces score ranges and the recommendation vocabulary.
func (a Analysis) Validate() error {
	if a.OverallScore < 0 || a.OverallScore > 100 {
		return fmt.Errorf("overallScore %.1f outside [0,100]", a.OverallScore)
	}
	subScores := map[string]float64{
		"technicalScore":                a.TechnicalScore,
		"communicationScore":            a.CommunicationScore,
		"scoreBreakdown.technical":      a.ScoreBreakdown.Technical,
		"scoreBreakdown.communication":  a.ScoreBreakdown.Communication,
		"scoreBreakdown.problemSolving": a.ScoreBreakdown.ProblemSolving,
		"scoreBreakdown.experience":     a.ScoreBreakdown.Experience,
	}
	for name, v := range subScores {
		if v < 0 || v > 10 {
			return fmt.Errorf("%s %.1f outside [0,10]", name, v)
		}
	}
	switch a.Recommendation {
	case RecommendationHire, RecommendationConsider, RecommendationReject:
	default:
		return fmt.Errorf("unknown recommendation %q", a.Recommendation)
	}
	return nil
}

// Scored is the scoring collaborator's success payload.
type Scored struct {
	Analysis   Analysis  `json:"detailedAnalysis"`
	AnalysisID string    `json:"analysisId"`
	SavedAt    time.Time `json:"savedAt"`
}

// ResultSummary is one persisted score row returned by the results query.
type ResultSummary struct {
	ID                 string         `json:"id" firestore:"id"`
	Email              string         `json:"email" firestore:"email"`
	JobID              string         `json:"job_id,omitempty" firestore:"jobId"`
	CandidateName      string         `json:"candidate_name" firestore:"candidateName"`
	Position           string         `json:"position" firestore:"position"`
	OverallScore       float64        `json:"overall_score" firestore:"overallScore"`
	TechnicalScore     float64        `json:"technical_score" firestore:"technicalScore"`
	CommunicationScore float64        `json:"communication_score" firestore:"communicationScore"`
	FinalFeedback      string         `json:"final_feedback" firestore:"finalFeedback"`
	Recommendation     Recommendation `json:"recommendation" firestore:"recommendation"`
	TotalQuestions     int            `json:"total_questions" firestore:"totalQuestions"`
	QuestionsAnswered  int            `json:"questions_answered" firestore:"questionsAnswered"`
	CreatedAt          time.Time      `json:"created_at" firestore:"createdAt"`
}

// NewResultSummary builds the persisted row for a scored transcript.
func NewResultSummary(t Transcript, a Analysis, createdAt time.Time) ResultSummary {
	name := t.Candidate.Name
	if name == "" {
		name = "Unknown"
	}
	position := t.Candidate.Position
	if position == "" {
		position = "Unknown"
	}
	return ResultSummary{
		Email:              t.Email,
		JobID:              t.JobID,
		CandidateName:      name,
		Position:           position,
		OverallScore:       a.OverallScore,
		TechnicalScore:     a.TechnicalScore,
		CommunicationScore: a.CommunicationScore,
		FinalFeedback:      a.FinalFeedback,
		Recommendation:     a.Recommendation,
		TotalQuestions:     len(t.Questions),
		QuestionsAnswered:  len(t.Responses),
		CreatedAt:          createdAt,
	}
}
