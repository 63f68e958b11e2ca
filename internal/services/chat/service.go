package chatsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rzbill/blinkhub/internal/datastore"
	"github.com/rzbill/blinkhub/internal/runtime"
	logpkg "github.com/rzbill/blinkhub/pkg/log"
)

// Keys under which the integration persists its settings.
const (
	KeyPrefix     = "slack."
	KeyToken      = KeyPrefix + "token"
	KeyNotify     = KeyPrefix + "notify"
	KeyNotifyType = KeyPrefix + "notifyType"
)

var (
	ErrNotConfigured = errors.New("chat integration not configured")
	ErrNotConnected  = errors.New("chat integration not connected")
	ErrRateLimited   = errors.New("chat notification rate limited")
	ErrInvalidTarget = errors.New("invalid notify target")
)

// TargetType is where notifications are delivered.
type TargetType string

const (
	TargetChannel TargetType = "channel"
	TargetGroup   TargetType = "group"
	TargetUser    TargetType = "user"
)

// Target identifies the default notification destination.
type Target struct {
	ID   string     `json:"id"`
	Type TargetType `json:"type"`
}

// Validate checks that the target has an id and a known type.
func (t Target) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidTarget)
	}
	switch t.Type {
	case TargetChannel, TargetGroup, TargetUser:
		return nil
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidTarget, t.Type)
	}
}

// Status describes the current connection state.
type Status struct {
	Connected bool      `json:"connected"`
	Since     time.Time `json:"since"`
	Message   string    `json:"message,omitempty"`
}

// Connector is the seam to the chat backend. The protocol itself lives
// outside this repository.
type Connector interface {
	Connect(ctx context.Context, token string) error
	Disconnect(ctx context.Context) error
	Send(ctx context.Context, target Target, text string) error
}

// Options tune the manager.
type Options struct {
	Connector Connector
	// RatePerMinute and Burst throttle Notify. Zero RatePerMinute disables throttling.
	RatePerMinute int
	Burst         int
	Logger        logpkg.Logger
}

// Manager owns the chat integration state: token, default notify target and
// connection status.
type Manager struct {
	rt      *runtime.Runtime
	conn    Connector
	limiter *rate.Limiter
	logger  logpkg.Logger

	mu     sync.Mutex
	status Status
}

func New(rt *runtime.Runtime, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	conn := opts.Connector
	if conn == nil {
		conn = NewLogConnector(logger)
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerMinute > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), burst)
	}
	return &Manager{
		rt:      rt,
		conn:    conn,
		limiter: limiter,
		logger:  logger,
		status:  Status{Since: time.Now(), Message: "not started"},
	}
}

// SaveToken persists the integration token. It does not reconnect; callers
// follow up with Restart.
func (m *Manager) SaveToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrNotConfigured)
	}
	if err := m.rt.DB().Set([]byte(KeyToken), []byte(token)); err != nil {
		return err
	}
	m.logger.Info("chat token saved", logpkg.Int("token_len", len(token)))
	return nil
}

// Token returns the stored token or ErrNotConfigured.
func (m *Manager) Token(ctx context.Context) (string, error) {
	recs, err := datastore.GetRecordsByPrefix(ctx, m.rt.DB(), KeyToken)
	if err != nil {
		return "", err
	}
	tok := recs[KeyToken]
	if tok == "" {
		return "", ErrNotConfigured
	}
	return tok, nil
}

// SaveNotifyTarget persists the default notification destination.
func (m *Manager) SaveNotifyTarget(ctx context.Context, t Target) error {
	if err := t.Validate(); err != nil {
		return err
	}
	b := m.rt.DB().NewBatch()
	defer b.Close()
	if err := b.Set([]byte(KeyNotify), []byte(t.ID), nil); err != nil {
		return err
	}
	if err := b.Set([]byte(KeyNotifyType), []byte(t.Type), nil); err != nil {
		return err
	}
	if err := m.rt.DB().CommitBatch(ctx, b); err != nil {
		return err
	}
	m.logger.Info("chat notify target saved", logpkg.Str("target", t.ID), logpkg.Str("type", string(t.Type)))
	return nil
}

// NotifyTarget returns the stored destination or ErrNotConfigured.
func (m *Manager) NotifyTarget(ctx context.Context) (Target, error) {
	recs, err := datastore.GetRecordsByPrefix(ctx, m.rt.DB(), KeyNotify)
	if err != nil {
		return Target{}, err
	}
	t := Target{ID: recs[KeyNotify], Type: TargetType(recs[KeyNotifyType])}
	if t.ID == "" {
		return Target{}, ErrNotConfigured
	}
	if t.Type == "" {
		t.Type = TargetChannel
	}
	return t, nil
}

// Connect starts the integration with the stored token.
func (m *Manager) Connect(ctx context.Context) error {
	tok, err := m.Token(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.Connected {
		return nil
	}
	if err := m.conn.Connect(ctx, tok); err != nil {
		m.setStatusLocked(false, err.Error())
		m.logger.Warn("chat connect failed", logpkg.Err(err))
		return err
	}
	m.setStatusLocked(true, "connected")
	m.logger.Info("chat integration started")
	return nil
}

// Disconnect stops the integration. Disconnecting twice is a no-op.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Connected {
		return nil
	}
	if err := m.conn.Disconnect(ctx); err != nil {
		m.logger.Warn("chat disconnect failed", logpkg.Err(err))
		return err
	}
	m.setStatusLocked(false, "stopped")
	m.logger.Info("chat integration stopped")
	return nil
}

// Restart disconnects and connects again, picking up a new token.
func (m *Manager) Restart(ctx context.Context) error {
	if err := m.Disconnect(ctx); err != nil {
		return err
	}
	return m.Connect(ctx)
}

// Status returns the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Notify sends text to the default target.
func (m *Manager) Notify(ctx context.Context, text string) error {
	if !m.Status().Connected {
		return ErrNotConnected
	}
	t, err := m.NotifyTarget(ctx)
	if err != nil {
		return err
	}
	if !m.limiter.Allow() {
		return ErrRateLimited
	}
	return m.conn.Send(ctx, t, text)
}

func (m *Manager) setStatusLocked(connected bool, msg string) {
	m.status = Status{Connected: connected, Since: time.Now(), Message: msg}
}
