package core

import "time"

// DispatchRequest captures one inbound message. Transient: created per
// message and discarded once the reply is produced.
type DispatchRequest struct {
	ID      string    `json:"id"`
	UserKey string    `json:"user_key"`
	Text    string    `json:"text"`
	Arrived time.Time `json:"arrived"`
}

// NewDispatchRequest stamps an inbound message with an ID and arrival time.
func NewDispatchRequest(userKey, text string) DispatchRequest {
	return DispatchRequest{ID: NewID(), UserKey: userKey, Text: text, Arrived: time.Now().UTC()}
}

// DispatchResult is the outcome of one dispatch: the reply text, which
// capability (if any) was invoked, and the failure detail when OK is false.
type DispatchResult struct {
	ID         string         `json:"id"`
	UserKey    string         `json:"user_key"`
	Reply      string         `json:"reply"`
	Capability string         `json:"capability,omitempty"`
	OK         bool           `json:"ok"`
	Err        *DispatchError `json:"error,omitempty"`
	Duration   time.Duration  `json:"duration"`
}
