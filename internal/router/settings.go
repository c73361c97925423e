package router

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"pinsaver/internal/domain"
	"pinsaver/internal/notify"
)

// Settings form messages.
const (
	MsgSettingsRequired   = "Pinry URL and API key are required"
	MsgSettingsInvalidURL = "Pinry URL must be a valid URL"
	MsgSettingsSaved      = "Settings saved!"
	MsgSettingsError      = "Error saving settings"
)

// SettingsForm is the raw input of the settings form.
type SettingsForm struct {
	ServiceURL     string `validate:"required,url"`
	APIToken       string `validate:"required"`
	DefaultBoardID string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// SaveSettings validates and stores the settings form.
func (r *Router) SaveSettings(ctx context.Context, origin Origin, form SettingsForm) notify.Toast {
	form.ServiceURL = strings.TrimSpace(form.ServiceURL)
	form.APIToken = strings.TrimSpace(form.APIToken)
	form.DefaultBoardID = strings.TrimSpace(form.DefaultBoardID)

	if err := validate.Struct(form); err != nil {
		return notify.Error(validationMessage(err))
	}

	err := r.store.SaveSettings(ctx, origin.UserID, domain.Settings{
		ServiceURL:     form.ServiceURL,
		APIToken:       form.APIToken,
		DefaultBoardID: form.DefaultBoardID,
	})
	if err != nil {
		r.log.WithError(err).Error("Error saving settings")
		return notify.Error(MsgSettingsError)
	}
	return notify.Success(MsgSettingsSaved)
}

// LoadSettings returns the current settings snapshot for display.
func (r *Router) LoadSettings(ctx context.Context, origin Origin) (domain.Settings, error) {
	return r.store.GetSettings(ctx, origin.UserID)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MsgSettingsError
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return MsgSettingsRequired
		}
	}
	return MsgSettingsInvalidURL
}
