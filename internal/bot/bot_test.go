package bot

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	tgbotapi "gopkg.in/telegram-bot-api.v4"

	"gastos/internal/core"
	"gastos/internal/intent"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, m)
	}
	return tgbotapi.Message{}, s.err
}

type fakeRecorder struct {
	errs  []error // returned in order, then success
	calls int
	panic bool
	ids   []string
}

func (r *fakeRecorder) Record(ctx context.Context, text string) (services.Receipt, error) {
	r.calls++
	r.ids = append(r.ids, applog.CorrelationID(ctx))
	if r.panic {
		panic("boom")
	}
	in := intent.Default.Classify(text)
	if r.calls <= len(r.errs) {
		return services.Receipt{Intent: in}, r.errs[r.calls-1]
	}
	return services.Receipt{Intent: in, Expense: &core.ExpenseEntry{
		Date: core.NewDate(2025, 3, 15), Concept: "uber", Amount: decimal.NewFromInt(20), Category: "transporte",
	}}, nil
}

type fakeReporter struct {
	keywords []string
}

func (r *fakeReporter) Reply(_ context.Context, keyword string) string {
	r.keywords = append(r.keywords, keyword)
	return "report:" + keyword
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: 42}, Text: text}
}

func commandMessage(cmd, args string) *tgbotapi.Message {
	text := "/" + cmd
	if args != "" {
		text += " " + args
	}
	m := textMessage(text)
	m.Entities = &[]tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	return m
}

func newTestBot(sender Sender, rec Recorder, rep Reporter, opts ...Option) *Bot {
	opts = append([]Option{
		WithLogger(applog.New(applog.Config{Output: io.Discard})),
		WithRetryDelay(time.Millisecond),
	}, opts...)
	return New(sender, rec, rep, opts...)
}

func TestRespondRouting(t *testing.T) {
	tests := []struct {
		name        string
		msg         *tgbotapi.Message
		want        string
		wantKeyword string
	}{
		{"free text records", textMessage("Gasté 20 en Uber"), "💸 Gasto registrado: uber - $20 (transporte)", ""},
		{"start shows usage", commandMessage("start", ""), services.UsageMessage, ""},
		{"ayuda shows usage", commandMessage("ayuda", ""), services.UsageMessage, ""},
		{"report default period", commandMessage("reporte", ""), "report:", ""},
		{"report with period", commandMessage("reporte", "semana extra"), "report:semana", "semana"},
		{"unknown command ignored", commandMessage("borrar", ""), "", ""},
		{"blank text ignored", textMessage("   "), "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := &fakeReporter{}
			b := newTestBot(&fakeSender{}, &fakeRecorder{}, rep)
			got := b.Respond(context.Background(), tt.msg)
			if got != tt.want {
				t.Fatalf("Respond() = %q, want %q", got, tt.want)
			}
			if len(rep.keywords) > 0 && rep.keywords[0] != tt.wantKeyword {
				t.Fatalf("reporter keyword = %q, want %q", rep.keywords[0], tt.wantKeyword)
			}
		})
	}
}

func TestRecordRetriesRetryableFailures(t *testing.T) {
	unavailable := core.Errorf(core.KindServiceUnavailable, "extract", "timeout")
	rec := &fakeRecorder{errs: []error{unavailable, unavailable}}
	b := newTestBot(&fakeSender{}, rec, &fakeReporter{}, WithRetries(2))

	got := b.Respond(context.Background(), textMessage("uber 20"))
	if !strings.HasPrefix(got, "💸 Gasto registrado") {
		t.Fatalf("expected success after retries, got %q", got)
	}
	if rec.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", rec.calls)
	}
}

func TestRecordGivesUpAfterRetries(t *testing.T) {
	unavailable := core.Errorf(core.KindServiceUnavailable, "extract", "timeout")
	rec := &fakeRecorder{errs: []error{unavailable, unavailable, unavailable}}
	b := newTestBot(&fakeSender{}, rec, &fakeReporter{}, WithRetries(1))

	got := b.Respond(context.Background(), textMessage("sueldo 1500"))
	if !strings.HasPrefix(got, "❌ Error al registrar ingreso:\n") {
		t.Fatalf("unexpected reply %q", got)
	}
	if rec.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", rec.calls)
	}
}

func TestRecordDoesNotRetryPermanentFailures(t *testing.T) {
	rec := &fakeRecorder{errs: []error{core.Errorf(core.KindMalformedResponse, "extract", "not json")}}
	b := newTestBot(&fakeSender{}, rec, &fakeReporter{}, WithRetries(3))

	got := b.Respond(context.Background(), textMessage("café 3"))
	if !strings.HasPrefix(got, "❌ Error al registrar gasto:\n") {
		t.Fatalf("unexpected reply %q", got)
	}
	if rec.calls != 1 {
		t.Fatalf("permanent failures must not be retried, got %d calls", rec.calls)
	}
}

func TestHandleUpdateSendsReply(t *testing.T) {
	sender := &fakeSender{}
	b := newTestBot(sender, &fakeRecorder{}, &fakeReporter{})

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage("uber 20")})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(sender.sent))
	}
	if sender.sent[0].ChatID != 42 || sender.sent[0].ReplyToMessageID != 7 {
		t.Fatalf("reply addressed wrongly: %+v", sender.sent[0].BaseChat)
	}
}

func TestHandleUpdateRecoversFromPanics(t *testing.T) {
	sender := &fakeSender{}
	b := newTestBot(sender, &fakeRecorder{panic: true}, &fakeReporter{})

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage("uber 20")})
	b.HandleUpdate(context.Background(), tgbotapi.Update{})

	if len(sender.sent) != 0 {
		t.Fatalf("no reply expected, got %d", len(sender.sent))
	}
}

func TestRunStopsOnContextAndClosedChannel(t *testing.T) {
	sender := &fakeSender{err: errors.New("network down")}
	b := newTestBot(sender, &fakeRecorder{}, &fakeReporter{})

	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{Message: textMessage("uber 20")}
	updates <- tgbotapi.Update{Message: commandMessage("reporte", "mes")}
	close(updates)

	if err := b.Run(context.Background(), updates); err == nil {
		t.Fatal("closed channel must end Run with an error")
	}
	if len(sender.sent) != 2 {
		t.Fatalf("send failures must not stop the loop, sent %d", len(sender.sent))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Run(ctx, make(chan tgbotapi.Update)); err != nil {
		t.Fatalf("cancelled Run should return nil, got %v", err)
	}
}

func TestProxyClient(t *testing.T) {
	client, err := proxyClient(ProxyConfig{Server: "127.0.0.1:1080", User: "u", Pass: "p"})
	if err != nil {
		t.Fatalf("proxyClient: %v", err)
	}
	if client.Transport == nil {
		t.Fatal("proxy transport not set")
	}
}

func TestHandleUpdateTagsContextWithCorrelationID(t *testing.T) {
	rec := &fakeRecorder{}
	b := newTestBot(&fakeSender{}, rec, &fakeReporter{})

	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage("uber 20")})
	b.HandleUpdate(context.Background(), tgbotapi.Update{Message: textMessage("taxi 30")})

	if len(rec.ids) != 2 || rec.ids[0] == "" || rec.ids[1] == "" {
		t.Fatalf("every update needs a correlation id, got %q", rec.ids)
	}
	if rec.ids[0] == rec.ids[1] {
		t.Fatal("updates must get distinct correlation ids")
	}
}
