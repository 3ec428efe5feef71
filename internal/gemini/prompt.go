package gemini

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/rbright/intervu/internal/interview"
)

const systemInstruction = "You are an expert technical interviewer and hiring manager. " +
	"Analyze the candidate's interview responses and provide comprehensive feedback with scores and recommendations. " +
	"Respond only with JSON matching the response schema."

const transcribeInstruction = "Transcribe this interview answer verbatim in the language spoken. " +
	"Output only the transcript text. Output nothing if there is no speech."

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func buildPrompt(t interview.Transcript) string {
	c := t.Candidate
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this interview for %s candidate:\n\n", orDefault(c.Position, "the position"))
	b.WriteString("CANDIDATE INFO:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orDefault(c.Name, "Not provided"))
	fmt.Fprintf(&b, "- Position: %s\n", orDefault(c.Position, "Not specified"))
	fmt.Fprintf(&b, "- Experience Level: %s\n\n", orDefault(c.ExperienceLevel, "Not specified"))

	b.WriteString("INTERVIEW DATA:\n")
	for i, q := range t.Questions {
		fmt.Fprintf(&b, "\nQuestion %d (%s - %s):\n%s\n\n", i+1,
			orDefault(q.Category, "general"), orDefault(string(q.Difficulty), "unrated"), q.Text)
		fmt.Fprintf(&b, "Answer: %s\n", t.AnswerFor(q.ID))
	}

	b.WriteString("\nSCORING CRITERIA:\n")
	b.WriteString("- overallScore: 0-100 (weighted average)\n")
	b.WriteString("- technicalScore, communicationScore and every scoreBreakdown field: 0-10\n")
	b.WriteString("- recommendation: \"Hire\", \"Consider\", or \"Reject\"\n")
	b.WriteString("- finalFeedback: 2-3 sentence summary\n")
	fmt.Fprintf(&b, "- Answers of %q were skipped by the candidate and %q means no response was recorded. Treat both as not attempted.\n",
		interview.SkippedAnswer, interview.NoAnswer)
	b.WriteString("\nBe fair but thorough in your assessment. Focus on answer quality, relevance, depth, and communication clarity.\n")
	return b.String()
}

func analysisSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	num := &genai.Schema{Type: genai.TypeNumber}
	strList := &genai.Schema{Type: genai.TypeArray, Items: str}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallScore":       num,
			"technicalScore":     num,
			"communicationScore": num,
			"recommendation": {
				Type: genai.TypeString,
				Enum: []string{
					string(interview.RecommendationHire),
					string(interview.RecommendationConsider),
					string(interview.RecommendationReject),
				},
			},
			"finalFeedback": str,
			"detailedFeedback": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"strengths":             strList,
					"weaknesses":            strList,
					"technicalAnalysis":     str,
					"communicationAnalysis": str,
					"culturalFit":           str,
					"specificInsights":      strList,
				},
			},
			"scoreBreakdown": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"technical":      num,
					"communication":  num,
					"problemSolving": num,
					"experience":     num,
				},
			},
			"nextSteps": str,
		},
		Required: []string{"overallScore", "technicalScore", "communicationScore", "recommendation", "finalFeedback"},
	}
}
