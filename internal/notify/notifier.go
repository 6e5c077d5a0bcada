// Package notify delivers alerts about detected wallet activity over
// email, Telegram and Discord. Delivery is best effort: a channel that
// fails is logged and skipped, it never blocks the detection pipeline.
package notify

import (
	"context"

	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
)

// Message is a single alert to deliver.
type Message struct {
	Subject string
	Body    string
}

// Notifier delivers a message over one channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Multi fans a message out to every configured channel.
type Multi struct {
	channels []Notifier
	logger   *logging.Logger
}

// NewMulti builds the dispatcher from configuration. Channels without
// credentials are left out.
func NewMulti(cfg *config.NotifyConfig, logger *logging.Logger) *Multi {
	m := &Multi{logger: logger.WithField("component", "notify")}

	if cfg.EmailUser != "" && cfg.EmailPassword != "" {
		m.channels = append(m.channels, NewEmailNotifier(cfg))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		m.channels = append(m.channels, NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.DiscordWebhookURL != "" {
		m.channels = append(m.channels, NewDiscordNotifier(cfg.DiscordWebhookURL))
	}

	return m
}

// Channels returns how many channels are active.
func (m *Multi) Channels() int {
	return len(m.channels)
}

// Send delivers the message on every channel, logging failures.
func (m *Multi) Send(ctx context.Context, msg Message) {
	for _, ch := range m.channels {
		if err := ch.Send(ctx, msg); err != nil {
			m.logger.WithField("channel", ch.Name()).WithError(err).Warn("Notification delivery failed")
			continue
		}
		m.logger.WithField("channel", ch.Name()).Debug("Notification delivered")
	}
}
