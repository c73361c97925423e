package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Settings holds the connection details for one installation.
// The JSON names are the persisted keys.
type Settings struct {
	ServiceURL     string `json:"pinryUrl"`
	APIToken       string `json:"apiKey"`
	DefaultBoardID string `json:"defaultBoardId"`
}

// Configured reports whether a submission may proceed.
func (s Settings) Configured() bool {
	return s.ServiceURL != "" && s.APIToken != ""
}

// MaskedToken returns the API token with everything but the last four characters hidden.
func (s Settings) MaskedToken() string {
	if len(s.APIToken) <= 4 {
		return strings.Repeat("*", len(s.APIToken))
	}
	return strings.Repeat("*", len(s.APIToken)-4) + s.APIToken[len(s.APIToken)-4:]
}

// DOMMetadata is what the page reported about the right-clicked <img>.
type DOMMetadata struct {
	AltText   string `json:"alt"`
	TitleText string `json:"title"`
	Found     bool   `json:"found"`
}

// ImageSaveRequest is built once per context-menu click and discarded afterwards.
type ImageSaveRequest struct {
	ImageURL string
	PageURL  string       // empty when unknown
	Metadata *DOMMetadata // nil when retrieval was skipped or failed
}

// PinPayload is the JSON body posted to the pins endpoint.
type PinPayload struct {
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Board       string   `json:"board,omitempty"`
}

// NewPinPayload builds the payload for an image, filing it under the default board if one is set.
func NewPinPayload(imageURL, description string, settings Settings) PinPayload {
	return PinPayload{
		URL:         imageURL,
		Description: description,
		Tags:        []string{},
		Board:       settings.DefaultBoardID,
	}
}

// ErrorKind classifies a failed submission.
type ErrorKind string

const (
	KindConfiguration     ErrorKind = "configuration"
	KindNetwork           ErrorKind = "network"
	KindRemoteRejection   ErrorKind = "remote_rejection"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// SubmissionResult is the normalized outcome of a single submission attempt.
type SubmissionResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details string          `json:"details,omitempty"`
	// Kind is empty on success.
	Kind ErrorKind `json:"-"`
}

// PageMetadata is the best-effort summary of a page's meta tags.
type PageMetadata struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Tags        []string `json:"tags"`
}

// Tab is the page a user is currently looking at.
type Tab struct {
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PinRecord is a successfully saved pin kept in the local history.
type PinRecord struct {
	ImageURL    string    `json:"image_url"`
	Description string    `json:"description"`
	Board       string    `json:"board,omitempty"`
	UserID      int64     `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
}
