package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soltip/soltip/balance"
	"github.com/soltip/soltip/client"
	"github.com/soltip/soltip/history"
	"github.com/soltip/soltip/logx"
	"github.com/soltip/soltip/program"
	"github.com/soltip/soltip/tip"
	"github.com/soltip/soltip/wallet"
)

const (
	sessionCookie     = "soltip_session"
	defaultSessionTTL = 30 * time.Minute
)

// Deps are the shared collaborators every browser session is built from.
type Deps struct {
	Network       client.Network
	Program       program.Descriptor
	Endpoint      string
	Adapters      []wallet.Adapter
	DefaultWallet string
	AutoConnect   bool
	Receipts      tip.ReceiptSink
	ResetDelay    time.Duration
}

// Session is the state of one browser: its wallet, form, history and
// balance card.
type Session struct {
	ID         string
	Wallet     *wallet.Provider
	Controller *tip.Controller
	Balance    *balance.Fetcher

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	subs     map[chan struct{}]struct{}
	notice   string
	lastSeen time.Time
}

func newSession(parent context.Context, deps Deps) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:       uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[chan struct{}]struct{}),
		lastSeen: time.Now(),
	}

	s.Wallet = wallet.NewProvider(deps.Endpoint, deps.Adapters,
		wallet.WithDefault(deps.DefaultWallet),
		wallet.WithOnChange(s.notify),
	)
	opts := []tip.Option{tip.WithOnChange(s.notify)}
	if deps.ResetDelay > 0 {
		opts = append(opts, tip.WithResetDelay(deps.ResetDelay))
	}
	if deps.Receipts != nil {
		opts = append(opts, tip.WithReceiptSink(deps.Receipts))
	}
	s.Controller = tip.NewController(s.Wallet, deps.Network, deps.Program, history.New(), opts...)
	s.Balance = balance.NewFetcher(deps.Network, s.notify)

	if deps.AutoConnect {
		s.Wallet.AutoConnect(ctx)
	}
	return s
}

// Subscribe returns a channel signalled after every state change. Signals
// coalesce when the reader is slow.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SetNotice stores a one-shot message for the next page render.
func (s *Session) SetNotice(msg string) {
	s.mu.Lock()
	s.notice = msg
	s.mu.Unlock()
	s.notify()
}

func (s *Session) takeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.notice
	s.notice = ""
	return msg
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Watching reports whether the session has live websocket subscribers.
func (s *Session) Watching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

func (s *Session) close() {
	s.cancel()
	s.Controller.Close()
	s.Wallet.Disconnect()
}

// SessionManager maps session cookies to sessions.
type SessionManager struct {
	deps Deps
	ctx  context.Context
	ttl  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(ctx context.Context, deps Deps, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionManager{
		deps:     deps,
		ctx:      ctx,
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session named by the request cookie, creating one and
// setting the cookie when there is none.
func (m *SessionManager) Get(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		m.mu.Lock()
		s, ok := m.sessions[c.Value]
		m.mu.Unlock()
		if ok {
			s.touch()
			return s
		}
	}

	s := newSession(m.ctx, m.deps)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	logx.Debug("SESSION", "created session ", s.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Lookup returns an existing session without creating one.
func (m *SessionManager) Lookup(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[c.Value]
	return s, ok
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the TTL that have no open
// websocket and no submission in flight.
func (m *SessionManager) Sweep(now time.Time) int {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) < m.ttl || s.Watching() || s.Controller.State().Submitting {
			continue
		}
		expired = append(expired, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		logx.Debug("SESSION", "expired ", len(expired), " sessions")
	}
	return len(expired)
}

// CloseAll ends every session.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
