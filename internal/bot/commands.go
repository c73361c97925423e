package bot

import (
	"fmt"
	"strings"

	"pinsaver/internal/domain"
)

const historyLimit = 10

const helpText = `Pinry Saver commands:
/settings <pinryUrl> <apiKey> [boardId] - configure your Pinry instance
/settings - show the current configuration
/pin <imageUrl> [pageUrl] - save an image (or just send the image URL)
/tab [pageUrl] - set or show the page you are on
/meta [pageUrl] - show page metadata
/describe [pageUrl] - suggest a description from the page text
/share <json> - send a raw pin {"url", "description", "tags", "board"}
/history - list recently saved images
/forget <imageUrl> - remove an image from the history`

// parseCommand splits "/cmd@botname arg1 arg2" into "cmd" and its arguments.
// It reports false when text is not a command.
func parseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:], true
}

// commandRest returns everything after the command word, untouched.
func commandRest(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func formatSettings(s domain.Settings) string {
	return fmt.Sprintf("Pinry URL: %s\nAPI key: %s\nDefault board: %s",
		orNotSet(s.ServiceURL), orNotSet(s.MaskedToken()), orNotSet(s.DefaultBoardID))
}

func formatPageMetadata(md domain.PageMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", orNotSet(md.Title))
	fmt.Fprintf(&b, "URL: %s\n", orNotSet(md.URL))
	fmt.Fprintf(&b, "Description: %s\n", orNotSet(md.Description))
	fmt.Fprintf(&b, "Image: %s\n", orNotSet(md.Image))
	fmt.Fprintf(&b, "Tags: %s", orNotSet(strings.Join(md.Tags, ", ")))
	return b.String()
}

func formatHistory(pins []domain.PinRecord) string {
	if len(pins) == 0 {
		return "No images saved yet."
	}
	if len(pins) > historyLimit {
		pins = pins[:historyLimit]
	}
	var b strings.Builder
	b.WriteString("Recently saved:")
	for i, p := range pins {
		fmt.Fprintf(&b, "\n%d. %s (%s)", i+1, p.Description, p.ImageURL)
	}
	return b.String()
}
