package server

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender performs the actual outbound Telegram delivery for the
// relay endpoint.
type TelegramSender interface {
	Send(token, chatID, message string) error
}

// botSender delivers through the Telegram Bot API. The relay is stateless:
// credentials arrive with each request, so a bot client is built per send.
type botSender struct{}

func (botSender) Send(token, chatID, message string) error {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("telegram auth: %w", err)
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chatId %q: %w", chatID, err)
	}

	msg := tgbotapi.NewMessage(id, message)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var _ TelegramSender = botSender{}
