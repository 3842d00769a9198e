// Package bot is the Telegram transport: it routes chat messages to the
// recorder and the reporter and sends their replies back.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	tgbotapi "gopkg.in/telegram-bot-api.v4"

	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

const (
	CommandStart  = "start"
	CommandHelp   = "ayuda"
	CommandReport = "reporte"

	defaultRetryDelay = time.Second
)

// Sender delivers replies; *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Recorder turns free text into a ledger entry.
type Recorder interface {
	Record(ctx context.Context, text string) (services.Receipt, error)
}

// Reporter renders a period summary, errors included.
type Reporter interface {
	Reply(ctx context.Context, keyword string) string
}

type Bot struct {
	sender     Sender
	recorder   Recorder
	reporter   Reporter
	retries    int
	retryDelay time.Duration
	limiter    *chatLimiter
	logger     *applog.Logger
}

// Option customizes a Bot.
type Option func(*Bot)

// WithRetries sets how many extra attempts a retryable Record failure gets.
func WithRetries(n int) Option {
	return func(b *Bot) {
		if n >= 0 {
			b.retries = n
		}
	}
}

// WithRetryDelay sets the first backoff delay; it doubles on each attempt.
func WithRetryDelay(d time.Duration) Option {
	return func(b *Bot) { b.retryDelay = d }
}

// WithRateLimit caps messages per minute per chat; zero or less disables
// the cap.
func WithRateLimit(perMinute int) Option {
	return func(b *Bot) {
		if perMinute <= 0 {
			b.limiter = nil
			return
		}
		b.limiter = newChatLimiter(perMinute)
	}
}

// WithLogger sets the logger.
func WithLogger(l *applog.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l.WithComponent(applog.ComponentBot)
		}
	}
}

func New(sender Sender, recorder Recorder, reporter Reporter, opts ...Option) *Bot {
	b := &Bot{
		sender:     sender,
		recorder:   recorder,
		reporter:   reporter,
		retries:    2,
		retryDelay: defaultRetryDelay,
		limiter:    newChatLimiter(DefaultMessagesPerMinute),
		logger:     applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentBot),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run handles updates one at a time until ctx is done or updates closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.logger.InfoContext(ctx, "Bot started")
	for {
		select {
		case <-ctx.Done():
			b.logger.InfoContext(ctx, "Bot stopping", "reason", ctx.Err())
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("updates channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers one update. A panic while handling is logged and
// swallowed so the loop keeps running.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	ctx = applog.WithCorrelationID(ctx, uuid.NewString())
	log := b.logger.With(applog.FieldChatID, msg.Chat.ID)
	ctx = applog.WithContext(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "Panic while handling update", "panic", r)
		}
	}()

	var reply string
	if b.limiter != nil && !b.limiter.Allow(msg.Chat.ID) {
		log.WarnContext(ctx, "Chat rate limited")
		reply = RateLimitedMessage
	} else {
		reply = b.Respond(ctx, msg)
	}
	if reply == "" {
		return
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.sender.Send(out); err != nil {
		log.ErrorContext(ctx, "Failed to send reply", applog.FieldError, err)
	}
}

// Respond maps a message to its reply text. Unknown commands get no reply.
func (b *Bot) Respond(ctx context.Context, msg *tgbotapi.Message) string {
	log := applog.FromContext(ctx)

	if msg.IsCommand() {
		cmd := strings.ToLower(msg.Command())
		log.InfoContext(ctx, "Command received", applog.FieldCommand, cmd)
		switch cmd {
		case CommandStart, CommandHelp:
			return services.UsageMessage
		case CommandReport:
			return b.reporter.Reply(ctx, firstArg(msg.CommandArguments()))
		default:
			return ""
		}
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ""
	}
	return b.record(ctx, text)
}

// record calls the recorder, retrying with exponential backoff while the
// failure is retryable.
func (b *Bot) record(ctx context.Context, text string) string {
	log := applog.FromContext(ctx)
	delay := b.retryDelay

	for attempt := 0; ; attempt++ {
		rec, err := b.recorder.Record(ctx, text)
		if err == nil {
			return rec.Ack()
		}
		if !core.Retryable(err) || attempt >= b.retries {
			return services.RecordErrorMessage(rec.Intent, err)
		}

		log.WarnContext(ctx, "Retrying message",
			applog.FieldAttempt, attempt+1,
			applog.FieldError, err)
		select {
		case <-ctx.Done():
			return services.RecordErrorMessage(rec.Intent, err)
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func firstArg(args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
