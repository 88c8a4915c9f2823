// Package telegram connects the bot core to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"orderbot/internal/bot"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func New(token string, debug bool, logger *zap.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	botAPI.Debug = debug

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	return &Bot{api: botAPI, logger: logger}, nil
}

// Render implements bot.Renderer.
func (b *Bot) Render(_ context.Context, chatID int64, messageID int, text string, kb *bot.Keyboard) (int, error) {
	if messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ReplyMarkup = inlineMarkup(kb)

		if _, err := b.api.Request(edit); err != nil {
			if isNotModified(err) {
				b.logger.Debug("Message not modified",
					zap.Int64("chat_id", chatID),
					zap.Int("message_id", messageID))
				return messageID, nil
			}
			return 0, fmt.Errorf("failed to edit message: %w", err)
		}
		return messageID, nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if markup := newMessageMarkup(kb); markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return sent.MessageID, nil
}

func (b *Bot) SendDocument(_ context.Context, chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption

	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send document: %w", err)
	}
	return nil
}

// Alert answers a callback query. Non-empty text is shown as a popup.
func (b *Bot) Alert(_ context.Context, callbackID, text string) error {
	answer := tgbotapi.NewCallback(callbackID, text)
	if text != "" {
		answer = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}

	if _, err := b.api.Request(answer); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "message is not modified")
}

// inlineMarkup returns nil for anything but a non-empty inline keyboard;
// edits can only carry inline markup.
func inlineMarkup(kb *bot.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if kb == nil || kb.Reply || kb.Remove || len(kb.Rows) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, r := range kb.Rows {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, row)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func newMessageMarkup(kb *bot.Keyboard) any {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return tgbotapi.NewRemoveKeyboard(false)
	case kb.Reply:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
		for _, r := range kb.Rows {
			row := make([]tgbotapi.KeyboardButton, 0, len(r))
			for _, btn := range r {
				if btn.RequestContact {
					row = append(row, tgbotapi.NewKeyboardButtonContact(btn.Text))
				} else {
					row = append(row, tgbotapi.NewKeyboardButton(btn.Text))
				}
			}
			rows = append(rows, row)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup
	}

	if markup := inlineMarkup(kb); markup != nil {
		return *markup
	}
	return nil
}
