// Package conversation implements the chat state machine: it accepts user
// input, streams the model's reply into a transcript and turns failures into
// an apology entry.
package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/scam-shield/backend/internal/fault"
	"github.com/zhouzirui/scam-shield/backend/internal/metrics"
	"github.com/zhouzirui/scam-shield/backend/internal/model/chat"
	"github.com/zhouzirui/scam-shield/backend/internal/service/ai"
)

// WelcomeText seeds every transcript.
const WelcomeText = "Здравствуйте! Я ваш консультант по кибербезопасности. Расскажите мне о подозрительном звонке, сообщении или сайте, и я помогу разобраться, не мошенники ли это."

// ApologyText is shown when a reply cannot be obtained.
const ApologyText = "Извините, произошла ошибка соединения. Попробуйте еще раз."

// Controller owns one transcript and one lazily opened session handle. At most
// one submission is processed at a time; further submissions are rejected
// until the state returns to idle.
type Controller struct {
	client  ai.SessionClient
	cfg     ai.SessionConfig
	timeout time.Duration
	logger  zerolog.Logger

	mu         sync.Mutex
	state      chat.State
	transcript *chat.Transcript
	handle     ai.Handle
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout bounds each submission. Zero (the default) means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithLogger sets the logger. Default is a disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a Controller in the idle state with the welcome message in its
// transcript. The session is opened on the first submission.
func New(client ai.SessionClient, cfg ai.SessionConfig, opts ...Option) *Controller {
	c := &Controller{
		client:     client,
		cfg:        cfg,
		logger:     zerolog.Nop(),
		state:      chat.StateIdle,
		transcript: chat.NewTranscript(chat.NewMessage(chat.RoleAssistant, WelcomeText)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitOption configures a single Submit call.
type SubmitOption func(*submitConfig)

type submitConfig struct {
	onEvent func(Event)
}

// WithEventHandler sets a callback that receives each transcript change during
// the submission. Callbacks run on the submitting goroutine.
func WithEventHandler(h func(Event)) SubmitOption {
	return func(c *submitConfig) { c.onEvent = h }
}

// Submit processes one user message. Blank text returns fault.ErrEmptyMessage
// and a submission while a reply is pending returns fault.ErrBusy; neither
// changes any state. A remote failure is recorded in the transcript and its
// *fault.TransportError is returned after the controller is idle again.
func (c *Controller) Submit(ctx context.Context, text string, opts ...SubmitOption) error {
	var cfg submitConfig
	for _, o := range opts {
		o(&cfg)
	}
	emit := func(e Event) {
		if cfg.onEvent != nil {
			cfg.onEvent(e)
		}
	}

	if strings.TrimSpace(text) == "" {
		return fault.ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state != chat.StateIdle {
		c.mu.Unlock()
		return fault.ErrBusy
	}
	userMsg := chat.NewMessage(chat.RoleUser, text)
	c.transcript.Append(userMsg)
	c.state = chat.StateAwaitingResponse
	c.mu.Unlock()
	emit(EventUserMessage{Message: userMsg})

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	handle, err := c.ensureHandle(ctx)
	if err != nil {
		return c.fail(fault.Transport("open session", err), emit)
	}

	stream := handle.Send(ctx, text)
	defer stream.Close()

	var (
		placeholder chat.Message
		opened      bool
		fragments   int
		sb          strings.Builder
	)
	openPlaceholder := func() {
		if opened {
			return
		}
		opened = true
		placeholder = chat.NewMessage(chat.RoleAssistant, "")
		c.mu.Lock()
		c.transcript.Append(placeholder)
		c.mu.Unlock()
		emit(EventPlaceholder{Message: placeholder})
	}

	for {
		switch o := stream.Next().(type) {
		case ai.Fragment:
			openPlaceholder()
			fragments++
			sb.WriteString(o.Text)
			full := sb.String()
			c.mu.Lock()
			err := c.transcript.Extend(placeholder.ID, full)
			c.mu.Unlock()
			if err != nil {
				c.logger.Error().Err(err).Str("message_id", placeholder.ID).Msg("failed to extend placeholder")
			}
			emit(EventFragment{MessageID: placeholder.ID, Delta: o.Text, Text: full})

		case ai.Completed:
			openPlaceholder()
			placeholder.Text = sb.String()
			c.mu.Lock()
			c.state = chat.StateIdle
			c.mu.Unlock()
			metrics.ChatTurns.WithLabelValues("completed").Inc()
			metrics.ChatFragments.Add(float64(fragments))
			c.logger.Debug().Int("fragments", fragments).Int("length", len(placeholder.Text)).Msg("reply completed")
			emit(EventCompleted{Message: placeholder})
			return nil

		case ai.Failed:
			metrics.ChatFragments.Add(float64(fragments))
			return c.fail(fault.Transport("stream reply", o.Err), emit)

		default:
			return c.fail(fault.Transport("stream reply", errUnknownOutcome), emit)
		}
	}
}

func (c *Controller) ensureHandle(ctx context.Context) (ai.Handle, error) {
	c.mu.Lock()
	h := c.handle
	c.mu.Unlock()
	if h != nil {
		return h, nil
	}

	h, err := c.client.Open(ctx, c.cfg)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.handle = h
	c.mu.Unlock()
	return h, nil
}

// fail appends the apology, passes through the error-shown state and returns
// to idle. Any partial placeholder stays as it is.
func (c *Controller) fail(err error, emit func(Event)) error {
	msg := chat.NewMessage(chat.RoleAssistant, ApologyText)
	msg.IsError = true

	c.mu.Lock()
	c.state = chat.StateErrorShown
	c.transcript.Append(msg)
	c.mu.Unlock()

	metrics.ChatTurns.WithLabelValues("failed").Inc()
	c.logger.Warn().Err(err).Msg("chat reply failed")
	emit(EventFailed{Message: msg, Err: err})

	c.mu.Lock()
	c.state = chat.StateIdle
	c.mu.Unlock()
	return err
}

// State returns the current state.
func (c *Controller) State() chat.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}
