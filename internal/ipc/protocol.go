package ipc

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK         bool   `json:"ok"`
	State      string `json:"state,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	Session    string `json:"session,omitempty"`
	Question   string `json:"question,omitempty"`
	Progress   string `json:"progress,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}
