package bot

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pinsaver/internal/notify"
)

// sender is the part of the Telegram client used to reply.
type sender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

// Presenter renders toasts as chat messages.
type Presenter struct {
	sender sender
}

// NewPresenter creates a Presenter that sends through b.
func NewPresenter(b *tgbot.Bot) *Presenter {
	return &Presenter{sender: b}
}

// Present sends the toast to chatID.
func (p *Presenter) Present(ctx context.Context, chatID int64, toast notify.Toast) error {
	_, err := p.sender.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   toast.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to send toast: %w", err)
	}
	return nil
}
