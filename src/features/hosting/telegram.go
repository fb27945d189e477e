package hosting

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orinfm/pipeline/src/features/config"
	"github.com/orinfm/pipeline/src/features/eventbus"
)

// notifiedEventTypes are the only events relayed to the operator chat;
// per-track chatter would drown the channel.
var notifiedEventTypes = map[string]bool{
	"rate_limited":     true,
	"pipeline_complete": true,
	"pipeline_error":   true,
	"import_complete":  true,
	"import_error":     true,
}

// StartTelegramSink subscribes a Telegram notifier to the event bus. It is
// a no-op when Telegram isn't configured. The returned func stops the
// subscription.
func StartTelegramSink(cfg *config.Manager, bus *eventbus.Bus) func() {
	if !cfg.Get().Telegram.Enabled {
		return func() {}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Get().Telegram.Token)
	if err != nil {
		slog.Error("failed to start telegram sink", "error", err)
		return func() {}
	}

	ch := bus.Subscribe()
	done := make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				if !notifiedEventTypes[event.Type] {
					continue
				}
				msg := tgbotapi.NewMessage(cfg.Get().Telegram.ChatID, fmt.Sprintf("%s: %v", event.Type, event.Data))
				if _, err := bot.Send(msg); err != nil {
					slog.Error("failed to send telegram notification", "error", err)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		bus.Unsubscribe(ch)
	}
}
