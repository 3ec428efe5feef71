package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     Set
		wantErr string
	}{
		{name: "empty ok", set: Set{}},
		{name: "valid", set: Set{Questions: []Question{
			{ID: "q1", Text: "Tell me about yourself", Difficulty: DifficultyEasy},
			{ID: "q2", Text: "Explain goroutines"},
		}}},
		{name: "missing id", set: Set{Questions: []Question{{Text: "x"}}}, wantErr: "no id"},
		{name: "missing text", set: Set{Questions: []Question{{ID: "q1", Text: "  "}}}, wantErr: "no text"},
		{name: "duplicate id", set: Set{Questions: []Question{{ID: "q1", Text: "a"}, {ID: "q1", Text: "b"}}}, wantErr: "duplicate"},
		{name: "bad difficulty", set: Set{Questions: []Question{{ID: "q1", Text: "a", Difficulty: "brutal"}}}, wantErr: "unknown difficulty"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.set.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestTranscriptAnswerForFallsBackToNoAnswer(t *testing.T) {
	tr := Transcript{Responses: []Response{{QuestionID: "q1", Answer: "yes"}}}
	require.Equal(t, "yes", tr.AnswerFor("q1"))
	require.Equal(t, NoAnswer, tr.AnswerFor("q2"))
}

func TestNewBackupCounts(t *testing.T) {
	completed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr := Transcript{
		Email:     "a@example.com",
		Questions: []Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}},
		Responses: []Response{{QuestionID: "q1"}, {QuestionID: "q2"}},
	}

	backup := NewBackup(tr, completed)
	require.Equal(t, 3, backup.TotalQuestions)
	require.Equal(t, 2, backup.TotalResponses)
	require.Equal(t, completed, backup.CompletedAt)
	require.Equal(t, "a@example.com", backup.Email)
}

func TestAnalysisValidate(t *testing.T) {
	valid := Analysis{
		OverallScore:       75.5,
		TechnicalScore:     8.2,
		CommunicationScore: 7.8,
		Recommendation:     RecommendationHire,
		ScoreBreakdown:     ScoreBreakdown{Technical: 8.2, Communication: 7.8, ProblemSolving: 7.5, Experience: 8},
	}
	require.NoError(t, valid.Validate())

	tooHigh := valid
	tooHigh.OverallScore = 101
	require.ErrorContains(t, tooHigh.Validate(), "overallScore")

	subScore := valid
	subScore.ScoreBreakdown.ProblemSolving = 11
	require.ErrorContains(t, subScore.Validate(), "problemSolving")

	badRec := valid
	badRec.Recommendation = "Maybe"
	require.ErrorContains(t, badRec.Validate(), "unknown recommendation")
}

func TestNewResultSummaryDefaultsUnknownCandidate(t *testing.T) {
	tr := Transcript{Email: "a@example.com", Questions: []Question{{ID: "q1"}}, Responses: []Response{{QuestionID: "q1"}}}
	summary := NewResultSummary(tr, Analysis{OverallScore: 50, Recommendation: RecommendationConsider}, time.Now())
	require.Equal(t, "Unknown", summary.CandidateName)
	require.Equal(t, "Unknown", summary.Position)
	require.Equal(t, 1, summary.TotalQuestions)
	require.Equal(t, 1, summary.QuestionsAnswered)
}
