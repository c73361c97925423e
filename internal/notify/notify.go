// Package notify defines the transient user notifications ("toasts") shown after an action.
package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Severity selects how a toast is styled.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Toast is a short message shown to the user once.
type Toast struct {
	Message  string
	Severity Severity
}

// Success returns a success toast.
func Success(msg string) Toast { return Toast{Message: msg, Severity: SeveritySuccess} }

// Error returns an error toast.
func Error(msg string) Toast { return Toast{Message: msg, Severity: SeverityError} }

// Info returns an informational toast.
func Info(msg string) Toast { return Toast{Message: msg, Severity: SeverityInfo} }

// Presenter renders a toast in the chat identified by chatID.
type Presenter interface {
	Present(ctx context.Context, chatID int64, toast Toast) error
}

// Icon returns the marker prefixed to a toast in plain-text front ends.
func (t Toast) Icon() string {
	switch t.Severity {
	case SeveritySuccess:
		return "✅"
	case SeverityError:
		return "❌"
	default:
		return "ℹ️"
	}
}

// String renders the toast as a single line of text.
func (t Toast) String() string {
	return t.Icon() + " " + t.Message
}

// LogPresenter writes toasts to a logger. It backs up a chat presenter whose send failed.
type LogPresenter struct {
	log logrus.FieldLogger
}

// NewLogPresenter creates a LogPresenter.
func NewLogPresenter(logger logrus.FieldLogger) *LogPresenter {
	return &LogPresenter{log: logger.WithField("component", "notify")}
}

// Present logs the toast at a level matching its severity.
func (p *LogPresenter) Present(ctx context.Context, chatID int64, toast Toast) error {
	entry := p.log.WithFields(logrus.Fields{"chat_id": chatID, "severity": toast.Severity})
	if toast.Severity == SeverityError {
		entry.Warn(toast.Message)
	} else {
		entry.Info(toast.Message)
	}
	return nil
}

// fallbackPresenter tries primary first and falls back to secondary on error.
type fallbackPresenter struct {
	primary   Presenter
	secondary Presenter
}

// WithFallback returns a Presenter that shows a toast through secondary when
// primary fails, so the outcome is never silently lost.
func WithFallback(primary, secondary Presenter) Presenter {
	return &fallbackPresenter{primary: primary, secondary: secondary}
}

func (p *fallbackPresenter) Present(ctx context.Context, chatID int64, toast Toast) error {
	err := p.primary.Present(ctx, chatID, toast)
	if err == nil {
		return nil
	}
	if fbErr := p.secondary.Present(ctx, chatID, toast); fbErr != nil {
		return fmt.Errorf("%w (fallback: %v)", err, fbErr)
	}
	return nil
}
