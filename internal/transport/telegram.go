package transport

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"xoxo/internal/candy"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type botAPISender struct{ api *tgbotapi.BotAPI }

func (s botAPISender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.api.Send(c)
}

// TelegramSender sends the note as a message and every attachment as a
// document. Recipients are numeric chat IDs.
type TelegramSender struct {
	s       sender
	subject string
}

func NewTelegramSender(botToken, subject string) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &TelegramSender{s: botAPISender{api: api}, subject: subject}, nil
}

// Send posts the note, then every attachment. It is not interruptible.
func (t *TelegramSender) Send(_ context.Context, recipient string, c candy.Candy) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: telegram recipient %q is not a chat id", ErrTransport, recipient)
	}

	text := t.subject
	if c.HasNote && c.Note != "" {
		text += "\n\n" + c.Note
	}
	if _, err := t.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%w: telegram message: %w", ErrTransport, err)
	}
	for _, a := range c.Attachments {
		if _, err := t.s.Send(tgbotapi.NewDocument(chatID, tgbotapi.FilePath(a))); err != nil {
			return fmt.Errorf("%w: telegram document %s: %w", ErrTransport, a, err)
		}
	}
	return nil
}
