package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/services-psychologists-psychotherapists/backend/internal/model"
)

type telegramClient interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramSender отправляет уведомление в привязанный чат Telegram
type TelegramSender struct {
	client telegramClient
}

func NewTelegramSender(token string) (*TelegramSender, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{client: b}, nil
}

func (s *TelegramSender) Name() string {
	return "telegram"
}

func (s *TelegramSender) Supports(recipient model.Participant) bool {
	return recipient.TelegramChatID != nil
}

func (s *TelegramSender) Send(ctx context.Context, recipient model.Participant, msg Message) error {
	_, err := s.client.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *recipient.TelegramChatID,
		Text:   msg.Subject + "\n\n" + msg.Body,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
