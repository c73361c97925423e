package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"pinsaver/internal/domain"
	"pinsaver/internal/notify"
	"pinsaver/internal/pinry"
	"pinsaver/internal/router"
)

const welcomeMessage = "Welcome to Pinry Saver! Configure your Pinry instance with " +
	"/settings <pinryUrl> <apiKey> [boardId], then send me an image URL to save it. Send /help for all commands."

// pinCommand is the chat counterpart of the "Save to Pinry" context-menu entry.
const pinCommand = "pin"

// Handler turns Telegram updates into router events.
type Handler struct {
	bot    *tgbot.Bot
	sender sender
	router *router.Router
	log    logrus.FieldLogger
}

// NewHandler registers the update handlers on b.
func NewHandler(b *tgbot.Bot, r *router.Router, logger logrus.FieldLogger) *Handler {
	h := &Handler{
		bot:    b,
		sender: b,
		router: r,
		log:    logger.WithField("component", "bot_handler"),
	}
	h.registerHandlers()
	h.log.Info("Telegram bot handler initialized")
	return h
}

func (h *Handler) registerHandlers() {
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "", tgbot.MatchTypeContains, h.messageHandler)
	h.log.Info("Registered message handler")
}

// Start registers the command menu and polls for updates until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) {
	if _, err := h.bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: menuCommands()}); err != nil {
		h.log.WithError(err).Warn("Failed to register bot commands")
	}

	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

func menuCommands() []models.BotCommand {
	return []models.BotCommand{
		{Command: pinCommand, Description: router.SaveToPinry.Title},
		{Command: "settings", Description: "Configure Pinry URL, API key and board"},
		{Command: "tab", Description: "Set or show the current page"},
		{Command: "meta", Description: "Show page metadata"},
		{Command: "describe", Description: "Suggest a description from the page"},
		{Command: "history", Description: "List recently saved images"},
		{Command: "help", Description: "Show usage"},
	}
}

func (h *Handler) messageHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	origin := router.Origin{UserID: update.Message.From.ID, ChatID: update.Message.Chat.ID}

	reply := h.handleText(ctx, origin, update.Message.Text)
	if reply == "" {
		return
	}
	_, err := h.sender.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: origin.ChatID,
		Text:   reply,
	})
	if err != nil {
		h.log.WithError(err).WithField("user_id", origin.UserID).Error("Failed to send reply")
	}
}

// handleText executes one chat message and returns the reply to send, if any.
// Toasts from saving an image are presented by the router itself.
func (h *Handler) handleText(ctx context.Context, origin router.Origin, text string) string {
	name, args, ok := parseCommand(text)
	if !ok {
		text = strings.TrimSpace(text)
		if _, ok := domain.ParseAbsoluteURL(text); ok {
			h.saveImage(ctx, origin, text, "")
			return ""
		}
		return "Send me an image URL, or /help for usage."
	}

	h.log.WithFields(logrus.Fields{
		"user_id": origin.UserID,
		"command": name,
	}).Debug("Received command")

	switch name {
	case "start":
		return h.install(ctx, origin)
	case "help":
		return helpText
	case "settings":
		return h.settings(ctx, origin, args)
	case pinCommand:
		h.saveImage(ctx, origin, arg(args, 0), arg(args, 1))
		return ""
	case "tab":
		return h.tab(ctx, origin, args)
	case "share":
		return h.share(ctx, origin, commandRest(text))
	case "meta":
		return h.meta(ctx, origin, arg(args, 0))
	case "describe":
		return h.describe(ctx, origin, arg(args, 0))
	case "history":
		pins, err := h.router.History(ctx, origin)
		if err != nil {
			return notify.Error("Could not load history").String()
		}
		return formatHistory(pins)
	case "forget":
		if len(args) == 0 {
			return notify.Error("Usage: /forget <imageUrl>").String()
		}
		return h.router.Forget(ctx, origin, args[0]).String()
	default:
		return "Unknown command. Send /help for usage."
	}
}

func (h *Handler) install(ctx context.Context, origin router.Origin) string {
	if err := h.router.Install(ctx, origin); err != nil {
		h.log.WithError(err).Error("Install failed")
		return notify.Error("Could not initialize settings").String()
	}
	return welcomeMessage
}

func (h *Handler) saveImage(ctx context.Context, origin router.Origin, imageURL, pageURL string) {
	h.router.SaveImage(ctx, origin, router.ContextMenuClick{
		MenuItemID: router.SaveToPinry.ID,
		ImageURL:   imageURL,
		PageURL:    pageURL,
	})
}

func (h *Handler) settings(ctx context.Context, origin router.Origin, args []string) string {
	if len(args) == 0 {
		s, err := h.router.LoadSettings(ctx, origin)
		if err != nil {
			return notify.Error("Could not load settings").String()
		}
		return formatSettings(s)
	}
	return h.router.SaveSettings(ctx, origin, router.SettingsForm{
		ServiceURL:     arg(args, 0),
		APIToken:       arg(args, 1),
		DefaultBoardID: arg(args, 2),
	}).String()
}

func (h *Handler) tab(ctx context.Context, origin router.Origin, args []string) string {
	if len(args) > 0 {
		return h.router.SetCurrentTab(ctx, origin, args[0]).String()
	}
	resp := h.router.Dispatch(ctx, router.Message{Action: router.ActionGetCurrentTab, Origin: origin})
	if !resp.Success {
		return "No current page set. Use /tab <pageUrl>."
	}
	return "Current page: " + resp.Tab.URL
}

func (h *Handler) share(ctx context.Context, origin router.Origin, raw string) string {
	var pin domain.PinPayload
	if err := json.Unmarshal([]byte(raw), &pin); err != nil {
		return notify.Error(fmt.Sprintf("Invalid pin data: %v", err)).String()
	}
	if pin.Tags == nil {
		pin.Tags = []string{}
	}
	resp := h.router.Dispatch(ctx, router.Message{Action: router.ActionShareToPinry, Origin: origin, Pin: &pin})
	switch {
	case resp.Success:
		return notify.Success("Pin created: " + string(resp.Result.Data)).String()
	case resp.Result != nil:
		return notify.Error(pinry.UserMessage(*resp.Result)).String()
	default:
		return notify.Error(resp.Error).String()
	}
}

func (h *Handler) meta(ctx context.Context, origin router.Origin, pageURL string) string {
	resp := h.router.Dispatch(ctx, router.Message{Action: router.ActionGetPageMetadata, Origin: origin, URL: pageURL})
	if !resp.Success {
		return notify.Error(resp.Error).String()
	}
	return formatPageMetadata(*resp.Metadata)
}

func (h *Handler) describe(ctx context.Context, origin router.Origin, pageURL string) string {
	resp := h.router.Dispatch(ctx, router.Message{Action: router.ActionExtractDescription, Origin: origin, URL: pageURL})
	if !resp.Success {
		return notify.Error(resp.Error).String()
	}
	if resp.Description == "" {
		return "No suitable paragraph found on the page."
	}
	return resp.Description
}
