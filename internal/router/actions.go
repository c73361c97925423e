package router

import (
	"context"
	"fmt"

	"pinsaver/internal/domain"
)

// Action is the discriminator of an inbound message.
type Action string

const (
	ActionGetCurrentTab      Action = "getCurrentTab"
	ActionShareToPinry       Action = "shareToPinry"
	ActionGetPageMetadata    Action = "getPageMetadata"
	ActionExtractDescription Action = "extractDescription"
)

// Message is an inbound action request.
type Message struct {
	Action Action
	Origin Origin
	// URL names the page for page-level actions; empty means the current tab.
	URL string
	// Pin is the payload for ActionShareToPinry.
	Pin *domain.PinPayload
}

// Response answers a Message. Only the fields relevant to the action are set.
type Response struct {
	Success     bool                     `json:"success"`
	Error       string                   `json:"error,omitempty"`
	Tab         *domain.Tab              `json:"tab,omitempty"`
	Result      *domain.SubmissionResult `json:"result,omitempty"`
	Metadata    *domain.PageMetadata     `json:"metadata,omitempty"`
	Description string                   `json:"description,omitempty"`
}

type actionHandler func(ctx context.Context, msg Message) Response

// Dispatch routes msg to the handler registered for its action.
func (r *Router) Dispatch(ctx context.Context, msg Message) Response {
	h, ok := r.handlers[msg.Action]
	if !ok {
		r.log.WithField("action", msg.Action).Warn("Unknown action")
		return errorResponse(fmt.Sprintf("unknown action: %s", msg.Action))
	}
	return h(ctx, msg)
}

func errorResponse(msg string) Response {
	return Response{Error: msg}
}

func (r *Router) getCurrentTab(ctx context.Context, msg Message) Response {
	tab, found, err := r.store.GetCurrentTab(ctx, msg.Origin.UserID)
	if err != nil {
		r.log.WithError(err).Error("Error getting current tab")
		return errorResponse(err.Error())
	}
	if !found {
		return errorResponse("no current tab")
	}
	return Response{Success: true, Tab: &tab}
}

func (r *Router) shareToPinry(ctx context.Context, msg Message) Response {
	if msg.Pin == nil {
		return errorResponse("missing pin data")
	}
	settings, err := r.store.GetSettings(ctx, msg.Origin.UserID)
	if err != nil {
		r.log.WithError(err).Error("Error sharing to Pinry")
		return errorResponse(err.Error())
	}
	result := r.submitter.Submit(ctx, settings, *msg.Pin)
	return Response{Success: result.Success, Error: result.Error, Result: &result}
}

func (r *Router) getPageMetadata(ctx context.Context, msg Message) Response {
	pageURL, resp, ok := r.resolvePage(ctx, msg)
	if !ok {
		return resp
	}
	md, err := r.scraper.PageMetadata(ctx, pageURL)
	if err != nil {
		r.log.WithError(err).WithField("page_url", pageURL).Warn("Could not read page metadata")
		return errorResponse(err.Error())
	}
	return Response{Success: true, Metadata: &md}
}

func (r *Router) extractDescription(ctx context.Context, msg Message) Response {
	pageURL, resp, ok := r.resolvePage(ctx, msg)
	if !ok {
		return resp
	}
	description, err := r.scraper.ExtractDescription(ctx, pageURL)
	if err != nil {
		r.log.WithError(err).WithField("page_url", pageURL).Warn("Could not extract description")
		return errorResponse(err.Error())
	}
	return Response{Success: true, Description: description}
}

// resolvePage picks the page a page-level action runs against.
func (r *Router) resolvePage(ctx context.Context, msg Message) (string, Response, bool) {
	if r.scraper == nil {
		return "", errorResponse("page access is not available"), false
	}
	pageURL := r.pageURL(ctx, msg.Origin, msg.URL)
	if !isAbsoluteURL(pageURL) {
		return "", errorResponse("no page to read; set one with /tab <url>"), false
	}
	return pageURL, Response{}, true
}
