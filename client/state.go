package client

import (
	"fmt"
	"strings"

	"chatbot/models"
)

type DisplayMode string

const (
	// DisplayTranscript keeps every exchange of the session.
	DisplayTranscript DisplayMode = "transcript"
	// DisplaySingleReply keeps only the latest exchange.
	DisplaySingleReply DisplayMode = "single-reply"
)

func ParseDisplayMode(s string) (DisplayMode, error) {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DisplayTranscript:
		return DisplayTranscript, nil
	case DisplaySingleReply, "single":
		return DisplaySingleReply, nil
	default:
		return "", fmt.Errorf("unknown display mode %q", s)
	}
}

// State is the conversation state of one session. It lives only as long
// as the ChatClient that owns it.
type State struct {
	History      []models.Message
	PendingInput string
	IsLoading    bool
	LastError    string
}

// Reply returns the content of the most recent assistant message, or ""
// if there is none.
func (s State) Reply() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == models.RoleAssistant {
			return s.History[i].Content
		}
	}
	return ""
}

func (s State) clone() State {
	out := s
	if s.History != nil {
		out.History = make([]models.Message, len(s.History))
		copy(out.History, s.History)
	}
	return out
}
