package pinry

import (
	"encoding/json"
	"strings"

	"pinsaver/internal/domain"
)

const unknownError = "Unknown error occurred"

// detailRule maps a recognizable upstream error body to a user-facing message.
type detailRule struct {
	match   func(details string) bool
	message string
}

// detailRules are checked in order against the raw response body of a rejected pin.
// They pattern-match free text from the server and are best-effort only.
var detailRules = []detailRule{
	{match: hasJSONKey("url-or-image"), message: "Invalid image URL - try a different image"},
	{match: contains("NOT NULL constraint failed"), message: "Image processing failed - try a different image"},
	{match: contains("IntegrityError"), message: "Image format not supported - try a different image"},
}

// UserMessage turns a failed submission into text suitable for a toast.
func UserMessage(result domain.SubmissionResult) string {
	if result.Details != "" {
		for _, rule := range detailRules {
			if rule.match(result.Details) {
				return rule.message
			}
		}
	}
	if result.Error != "" {
		return result.Error
	}
	return unknownError
}

func hasJSONKey(key string) func(string) bool {
	return func(details string) bool {
		var body map[string]json.RawMessage
		if err := json.Unmarshal([]byte(details), &body); err != nil {
			return false
		}
		_, ok := body[key]
		return ok
	}
}

func contains(substr string) func(string) bool {
	return func(details string) bool {
		return strings.Contains(details, substr)
	}
}
