package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"orderbot/internal/bot"
	"orderbot/internal/storage"
)

type Handler interface {
	HandleEvent(ctx context.Context, ev bot.Event) error
}

// Run polls for updates until ctx is done. Events are sharded by user so each
// user's events are handled in order while different users run in parallel.
func (b *Bot) Run(ctx context.Context, h Handler, workers int) error {
	if workers < 1 {
		workers = 1
	}

	b.logger.Info("Starting bot", zap.Int("workers", workers))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	g, ctx := errgroup.WithContext(ctx)

	shards := make([]chan bot.Event, workers)
	for i := range shards {
		ch := make(chan bot.Event, 16)
		shards[i] = ch
		g.Go(func() error {
			for ev := range ch {
				b.process(ctx, h, ev)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range shards {
				close(ch)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				b.logger.Info("Shutting down bot")
				b.api.StopReceivingUpdates()
				return nil

			case update, ok := <-updates:
				if !ok {
					return nil
				}

				ev, ok := toEvent(update)
				if !ok {
					continue
				}

				select {
				case shards[shardFor(ev.UserID, workers)] <- ev:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	return g.Wait()
}

func (b *Bot) process(ctx context.Context, h Handler, ev bot.Event) {
	logger := b.logger.With(
		zap.String("trace_id", uuid.NewString()),
		zap.Int64("chat_id", ev.ChatID),
		zap.Int64("user_id", ev.UserID))

	logger.Debug("Processing update",
		zap.Int("kind", int(ev.Kind)),
		zap.String("data", ev.Data))

	if err := h.HandleEvent(ctx, ev); err != nil {
		logger.Error("Failed to handle update", zap.Error(err))
	}
}

func shardFor(userID int64, n int) int {
	return int(uint64(userID) % uint64(n))
}

// toEvent normalizes an update. Updates the bot does not act on yield false.
func toEvent(update tgbotapi.Update) (bot.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil || cq.From == nil {
			return bot.Event{}, false
		}
		return bot.Event{
			Kind:       bot.EventButton,
			ChatID:     cq.Message.Chat.ID,
			UserID:     cq.From.ID,
			MessageID:  cq.Message.MessageID,
			CallbackID: cq.ID,
			Data:       cq.Data,
			Profile:    profile(cq.From),
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return bot.Event{}, false
	}

	ev := bot.Event{
		Kind:    bot.EventText,
		ChatID:  msg.Chat.ID,
		UserID:  msg.From.ID,
		Text:    msg.Text,
		Profile: profile(msg.From),
	}

	switch {
	case msg.Contact != nil:
		// Only the sender's own contact is trusted as a phone number.
		if msg.Contact.UserID == msg.From.ID {
			ev.Kind = bot.EventContact
			ev.ContactPhone = msg.Contact.PhoneNumber
		}
	case msg.IsCommand():
		ev.Kind = bot.EventCommand
		ev.Text = msg.Command()
	}

	return ev, true
}

func profile(u *tgbotapi.User) storage.UserProfile {
	return storage.UserProfile{
		ID:           u.ID,
		Username:     u.UserName,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
	}
}
