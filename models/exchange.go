package models

import (
	"time"
)

// Exchange is a single request/reply round trip recorded by the backend.
type Exchange struct {
	ID          string    `json:"id"`
	UserMessage string    `json:"user_message"`
	Reply       string    `json:"reply"`
	Provider    string    `json:"provider"`
	Timestamp   time.Time `json:"timestamp"`
}
