package events

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts booking changes to an operations chat.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) BookingChanged(_ context.Context, ev BookingStatusChanged) error {
	msg := tgbotapi.NewMessage(t.chatID, formatTelegram(ev))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatTelegram(ev BookingStatusChanged) string {
	if ev.PreviousStatus == "" || ev.PreviousStatus == ev.Status {
		return fmt.Sprintf("Booking #%d (tour %d): %s, payment %s", ev.BookingID, ev.TourID, ev.Status, ev.PaymentStatus)
	}
	return fmt.Sprintf("Booking #%d (tour %d): %s -> %s, payment %s", ev.BookingID, ev.TourID, ev.PreviousStatus, ev.Status, ev.PaymentStatus)
}
