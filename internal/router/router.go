// Package router maps host events (install, context-menu clicks, action messages)
// onto the pin-saving operations.
package router

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"pinsaver/internal/describe"
	"pinsaver/internal/domain"
	"pinsaver/internal/notify"
	"pinsaver/internal/pinry"
	"pinsaver/internal/scraper"
	"pinsaver/internal/storage"
)

// User-facing messages for the context-menu flow.
const (
	MsgNotConfigured = "Please configure Pinry URL and API key in the addon settings first."
	MsgNotAnImage    = "Please right-click on an image to save it to Pinry."
	MsgSaved         = "Successfully saved image to Pinry!"
	MsgUnexpected    = "An error occurred while saving to Pinry."
)

// MenuItem describes an entry registered in the host's context menu.
type MenuItem struct {
	ID    string
	Title string
}

// SaveToPinry is the only context-menu entry. It applies to images.
var SaveToPinry = MenuItem{
	ID:    "save-to-pinry",
	Title: "Save to Pinry",
}

// Origin identifies who triggered an event and where to answer.
type Origin struct {
	UserID int64
	ChatID int64
}

// ContextMenuClick is delivered when the user picks a context-menu entry.
type ContextMenuClick struct {
	MenuItemID string
	ImageURL   string // empty when the click was not on an image
	PageURL    string // empty to fall back to the current tab
}

// Store is the storage surface the router needs.
type Store interface {
	storage.SettingsStore
	storage.TabStore
	storage.PinHistory
}

// Router dispatches host events. It holds no mutable state of its own.
type Router struct {
	store     Store
	scraper   scraper.Scraper
	submitter pinry.Submitter
	presenter notify.Presenter
	defaults  domain.Settings
	log       logrus.FieldLogger
	handlers  map[Action]actionHandler
}

// New creates a Router. scraper may be nil, in which case descriptions are built
// without DOM metadata. defaults seeds the settings of new installations.
func New(store Store, sc scraper.Scraper, submitter pinry.Submitter, presenter notify.Presenter, defaults domain.Settings, logger logrus.FieldLogger) *Router {
	r := &Router{
		store:     store,
		scraper:   sc,
		submitter: submitter,
		presenter: presenter,
		defaults:  defaults,
		log:       logger.WithField("component", "router"),
	}
	r.handlers = map[Action]actionHandler{
		ActionGetCurrentTab:      r.getCurrentTab,
		ActionShareToPinry:       r.shareToPinry,
		ActionGetPageMetadata:    r.getPageMetadata,
		ActionExtractDescription: r.extractDescription,
	}
	return r
}

// Install handles the installation event: it creates empty (or seeded) settings
// for a new installation and leaves existing ones untouched.
func (r *Router) Install(ctx context.Context, origin Origin) error {
	created, err := r.store.EnsureSettings(ctx, origin.UserID, r.defaults)
	if err != nil {
		return err
	}
	if created {
		r.log.WithField("user_id", origin.UserID).Info("Pinry Saver installed")
	}
	return nil
}

// SaveImage handles a click on the "Save to Pinry" entry and reports the outcome as a toast.
// Clicks on other entries are ignored and return a zero Toast.
func (r *Router) SaveImage(ctx context.Context, origin Origin, click ContextMenuClick) notify.Toast {
	if click.MenuItemID != SaveToPinry.ID {
		return notify.Toast{}
	}
	toast := r.saveImage(ctx, origin, click)
	r.present(ctx, origin, toast)
	return toast
}

func (r *Router) saveImage(ctx context.Context, origin Origin, click ContextMenuClick) notify.Toast {
	log := r.log.WithFields(logrus.Fields{
		"user_id":   origin.UserID,
		"image_url": click.ImageURL,
	})

	settings, err := r.store.GetSettings(ctx, origin.UserID)
	if err != nil {
		log.WithError(err).Error("Error in context menu")
		return notify.Error(MsgUnexpected)
	}
	if !settings.Configured() {
		return notify.Error(MsgNotConfigured)
	}
	if !isAbsoluteURL(click.ImageURL) {
		return notify.Error(MsgNotAnImage)
	}

	log.Info("Saving image to Pinry")

	req := domain.ImageSaveRequest{
		ImageURL: click.ImageURL,
		PageURL:  r.pageURL(ctx, origin, click.PageURL),
	}
	req.Metadata = r.imageMetadata(ctx, req.PageURL, req.ImageURL)

	payload := domain.NewPinPayload(req.ImageURL, describe.Build(req), settings)
	result := r.submitter.Submit(ctx, settings, payload)
	if !result.Success {
		log.WithFields(logrus.Fields{
			"kind":    result.Kind,
			"error":   result.Error,
			"details": result.Details,
		}).Warn("Failed to save image")
		return notify.Error(pinry.UserMessage(result))
	}

	err = r.store.RecordPin(ctx, domain.PinRecord{
		ImageURL:    payload.URL,
		Description: payload.Description,
		Board:       payload.Board,
		UserID:      origin.UserID,
		Timestamp:   time.Now(),
	})
	if err != nil {
		log.WithError(err).Warn("Pin saved but not recorded in history")
	}
	return notify.Success(MsgSaved)
}

// pageURL returns explicit when set, otherwise the user's current tab.
func (r *Router) pageURL(ctx context.Context, origin Origin, explicit string) string {
	if explicit != "" {
		return explicit
	}
	tab, found, err := r.store.GetCurrentTab(ctx, origin.UserID)
	if err != nil {
		r.log.WithError(err).Debug("Could not read current tab")
		return ""
	}
	if !found {
		return ""
	}
	return tab.URL
}

// imageMetadata is best-effort: every failure yields nil.
func (r *Router) imageMetadata(ctx context.Context, pageURL, imageURL string) *domain.DOMMetadata {
	if r.scraper == nil || !isAbsoluteURL(pageURL) {
		return nil
	}
	md, err := r.scraper.ImageMetadata(ctx, pageURL, imageURL)
	if err != nil {
		r.log.WithError(err).WithField("page_url", pageURL).Debug("Could not extract image metadata")
		return nil
	}
	return &md
}

// SetCurrentTab records the page the user is looking at.
func (r *Router) SetCurrentTab(ctx context.Context, origin Origin, pageURL string) notify.Toast {
	if !isAbsoluteURL(pageURL) {
		return notify.Error("Page URL must be an absolute URL")
	}
	if err := r.store.SetCurrentTab(ctx, origin.UserID, domain.Tab{URL: pageURL}); err != nil {
		return notify.Error("Error saving current page")
	}
	return notify.Info("Current page set to " + pageURL)
}

// History returns the pins saved from this installation, newest first.
func (r *Router) History(ctx context.Context, origin Origin) ([]domain.PinRecord, error) {
	return r.store.GetPinsByUser(ctx, origin.UserID)
}

// Forget removes a pin from the local history. The pin on Pinry is left alone.
func (r *Router) Forget(ctx context.Context, origin Origin, imageURL string) notify.Toast {
	if err := r.store.DeletePin(ctx, origin.UserID, imageURL); err != nil {
		return notify.Error("Error removing pin from history")
	}
	return notify.Info("Removed from history")
}

func (r *Router) present(ctx context.Context, origin Origin, toast notify.Toast) {
	if r.presenter == nil {
		return
	}
	if err := r.presenter.Present(ctx, origin.ChatID, toast); err != nil {
		r.log.WithError(err).Error("Error showing toast")
	}
}

func isAbsoluteURL(raw string) bool {
	_, ok := domain.ParseAbsoluteURL(raw)
	return ok
}
