package session

import (
	"fmt"
	"strings"

	"github.com/rbright/intervu/internal/interview"
)

const (
	submitTransitionLine = "Thank you for your response. Let's move to the next question."
	skipTransitionLine   = "Moving to the next question."
	closingLine          = "Thank you for completing the interview. Your responses are being analyzed. Please wait a moment for your results."
	scoredLine           = "Your interview has been analyzed successfully. Run 'intervu results' to see your detailed feedback and score."
	degradedLine         = "Interview completed successfully. Your responses have been recorded."

	microphoneErrorMessage = "Unable to access microphone. Please check your audio input and try again."
	transcribeErrorMessage = "Failed to transcribe audio. Please try again."
	emptySubmitMessage     = "Please record a response before submitting."
	cameraNotReadyMessage  = "Camera is not ready. Run 'intervu retry' after fixing the camera."
)

func welcomeLine(c interview.Candidate, total int) string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = "candidate"
	}
	position := strings.TrimSpace(c.Position)
	if position == "" {
		position = "position"
	}
	return fmt.Sprintf(
		"Hello %s! Welcome to your %s interview. I'll be asking you %d questions. "+
			"Please speak clearly and use the record button to capture your responses. "+
			"Let's begin with the first question.",
		name, position, total,
	)
}

func questionLine(index int, q interview.Question) string {
	return fmt.Sprintf("Question %d: %s", index+1, q.Text)
}
