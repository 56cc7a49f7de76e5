package client

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"chatbot/models"
)

// Config configures a ChatClient. BaseURL is required; everything else
// has a usable zero value.
type Config struct {
	BaseURL     string
	DisplayMode DisplayMode

	// Timeout bounds a single exchange. Zero means no limit.
	Timeout time.Duration

	// HTTP lets callers supply their own resty client (proxies, TLS). It
	// is not reconfigured, so it may be shared between ChatClients.
	HTTP   *resty.Client
	Logger *zap.SugaredLogger

	// OnChange is called with a copy of the state after every mutation.
	// It runs on the goroutine that caused the change, outside the lock.
	OnChange func(State)

	Now func() time.Time
}

// ChatClient sends one POST /chat per submission and keeps the session's
// conversation state. Only one exchange may be in flight at a time.
type ChatClient struct {
	http     *resty.Client
	chatURL  string
	timeout  time.Duration
	mode     DisplayMode
	logger   *zap.SugaredLogger
	onChange func(State)
	now      func() time.Time

	mu    sync.Mutex
	state State
}

func New(cfg Config) (*ChatClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("chat: base URL is required")
	}

	mode := cfg.DisplayMode
	if mode == "" {
		mode = DisplayTranscript
	}
	if _, err := ParseDisplayMode(string(mode)); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = resty.New().SetLogger(logger)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &ChatClient{
		http:     httpClient,
		chatURL:  base + "/chat",
		timeout:  cfg.Timeout,
		mode:     mode,
		logger:   logger,
		onChange: cfg.OnChange,
		now:      now,
	}, nil
}

func (c *ChatClient) Mode() DisplayMode { return c.mode }

// Snapshot returns a copy of the current state.
func (c *ChatClient) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetInput records the uncommitted text being composed.
func (c *ChatClient) SetInput(text string) {
	c.update(func(s *State) { s.PendingInput = text })
}

// CanSubmit reports whether Submit would send text right now.
func (c *ChatClient) CanSubmit(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.state.IsLoading && strings.TrimSpace(text) != ""
}

// Submit sends text to the backend and blocks until the exchange settles.
//
// Blank text returns ErrBlankInput and a call made while another exchange
// is in flight returns ErrInFlight; neither touches the state. Otherwise
// the user message is appended before the request goes out, and either an
// assistant message or LastError is recorded when it settles. The returned
// error is a *TransportError, *ServerError or *MalformedResponseError.
func (c *ChatClient) Submit(ctx context.Context, text string) (err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrBlankInput
	}

	c.mu.Lock()
	if c.state.IsLoading {
		c.mu.Unlock()
		return ErrInFlight
	}
	if c.mode == DisplaySingleReply {
		c.state.History = nil
	}
	c.state.History = append(c.state.History, models.Message{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
	})
	c.state.PendingInput = ""
	c.state.LastError = ""
	c.state.IsLoading = true
	snap := c.state.clone()
	c.mu.Unlock()

	var reply *models.Message
	defer func() { c.settle(reply, err) }()

	c.notify(snap)
	reply, err = c.exchange(ctx, text)
	return err
}

func (c *ChatClient) exchange(ctx context.Context, text string) (*models.Message, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(models.ChatRequest{Message: text}).
		Post(c.chatURL)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if !resp.IsSuccess() {
		return nil, &ServerError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var body models.ChatResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &MalformedResponseError{Err: err}
	}
	if body.Reply == nil {
		return nil, &MalformedResponseError{Err: errMissingReply}
	}

	return &models.Message{
		Role:      models.RoleAssistant,
		Content:   *body.Reply,
		Timestamp: body.Timestamp,
	}, nil
}

// settle records the outcome and clears IsLoading. It runs deferred so
// the flag is cleared on every exit path.
func (c *ChatClient) settle(reply *models.Message, err error) {
	if err == nil && reply == nil {
		err = &TransportError{Err: errors.New("exchange aborted")}
	}
	if err != nil {
		c.logger.Debugw("chat exchange failed", "error", err)
	}

	c.update(func(s *State) {
		if err != nil {
			s.LastError = UserMessage(err)
		} else {
			s.History = append(s.History, *reply)
		}
		s.IsLoading = false
	})
}

func (c *ChatClient) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snap := c.state.clone()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *ChatClient) notify(s State) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
