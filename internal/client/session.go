package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/techgaint000/SecureAccountManager/internal/model"
)

// State is the session store's authentication state. The store starts in
// StateInitializing and leaves it exactly once, after the initial session
// check resolves.
type State int

const (
	StateInitializing State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// sessionEvent is an input to the state machine.
type sessionEvent int

const (
	eventResolvedSession sessionEvent = iota
	eventResolvedNone
	eventSignedIn
	eventSignedOut
	eventRefreshed
)

// nextState is the single transition function. Every state change in the
// store goes through here.
func nextState(cur State, ev sessionEvent) State {
	switch ev {
	case eventResolvedSession, eventSignedIn, eventRefreshed:
		return StateAuthenticated
	case eventResolvedNone, eventSignedOut:
		return StateUnauthenticated
	}
	return cur
}

// WatchFunc observes session state changes. Watchers run sequentially in
// event order.
type WatchFunc func(state State, session *model.AuthSession)

// SessionStore tracks the user's authentication state against the backend:
// it resolves the initial session on Start, applies sign-in/sign-out and
// refresh events in order, and keeps local token artifacts consistent with
// what the server believes.
type SessionStore struct {
	client *Client
	logger *slog.Logger

	mu          sync.Mutex
	state       State
	session     *model.AuthSession
	loading     bool
	watchers    map[int]WatchFunc
	nextWatchID int
	started     bool

	resolveOnce sync.Once
	uninstall   func()
	sub         *Subscription
}

func NewSessionStore(c *Client, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		client:   c,
		logger:   logger,
		state:    StateInitializing,
		loading:  true,
		watchers: make(map[int]WatchFunc),
	}
}

// Start installs the stale-session interceptor, resolves the initial session
// and, when one exists, subscribes to the backend's auth event stream. The
// loading flag is resolved exactly once, whatever the outcome.
func (s *SessionStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("session store already started")
	}
	s.started = true
	s.mu.Unlock()

	uninstall, installed := s.client.InstallInterceptor(s.handleStale)
	if installed {
		s.uninstall = uninstall
	}

	sess, err := s.client.GetSession(ctx)
	switch {
	case err != nil:
		s.logger.Warn("initial session check failed", "error", err)
		s.apply(eventResolvedNone, nil)
	case sess != nil:
		s.apply(eventResolvedSession, sess)
		s.subscribe(ctx)
	default:
		s.apply(eventResolvedNone, nil)
	}
	return nil
}

// Close tears down the interceptor and event subscription. The store keeps
// its last state; it is not restartable.
func (s *SessionStore) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	uninstall := s.uninstall
	s.uninstall = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if uninstall != nil {
		uninstall()
	}
}

// State returns the current authentication state.
func (s *SessionStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether the initial session check is still in flight.
func (s *SessionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Session returns the current session, or nil when unauthenticated.
func (s *SessionStore) Session() *model.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// CurrentUser returns the signed-in user, or nil.
func (s *SessionStore) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	return &s.session.User
}

// Watch registers a state observer. The returned function removes it.
func (s *SessionStore) Watch(fn WatchFunc) func() {
	s.mu.Lock()
	id := s.nextWatchID
	s.nextWatchID++
	s.watchers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// apply feeds one event through the transition function, updates the held
// session and notifies watchers. Events are applied in call order; watcher
// callbacks run outside the lock but still sequentially per apply.
func (s *SessionStore) apply(ev sessionEvent, sess *model.AuthSession) {
	s.mu.Lock()
	s.state = nextState(s.state, ev)
	if s.state == StateAuthenticated {
		if sess != nil {
			s.session = sess
		}
	} else {
		s.session = nil
	}
	s.resolveOnce.Do(func() { s.loading = false })
	state := s.state
	current := s.session
	watchers := make([]WatchFunc, 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(state, current)
	}
}

// SignIn authenticates and transitions to StateAuthenticated. Bad
// credentials are returned as a typed *APIError with no state change.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) (*model.AuthSession, error) {
	sess, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.apply(eventSignedIn, sess)
	s.subscribe(ctx)
	return sess, nil
}

// SignUp registers a new user and transitions to StateAuthenticated.
func (s *SessionStore) SignUp(ctx context.Context, email, password string) (*model.AuthSession, error) {
	sess, err := s.client.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.apply(eventSignedIn, sess)
	s.subscribe(ctx)
	return sess, nil
}

// SignOut ends the session. It is idempotent: when no session exists it
// clears local state and returns nil, and when the revoke call fails the
// local state is still cleared so the caller never gets stuck signed in.
func (s *SessionStore) SignOut(ctx context.Context) error {
	sess, err := s.client.GetSession(ctx)
	if err != nil {
		s.logger.Warn("sign-out session check failed", "error", err)
		s.clearLocal()
		return nil
	}
	if sess == nil {
		s.clearLocal()
		return nil
	}

	if err := s.client.SignOut(ctx, ScopeGlobal); err != nil {
		s.logger.Warn("sign-out failed", "error", err)
		s.clearLocal()
		return err
	}
	s.apply(eventSignedOut, nil)
	return nil
}

// HasSession reports whether the backend still recognizes the session.
func (s *SessionStore) HasSession(ctx context.Context) (bool, error) {
	sess, err := s.client.GetSession(ctx)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

func (s *SessionStore) clearLocal() {
	if err := s.client.ClearLocalSession(); err != nil {
		s.logger.Warn("clear local session", "error", err)
	}
	s.apply(eventSignedOut, nil)
}

// handleStale runs when the interceptor sees a stale-session response: the
// local identity is dropped first, then a best-effort local sign-out removes
// the dead session's artifacts. Cleanup errors are swallowed; the original
// response continues to its caller unchanged.
func (s *SessionStore) handleStale() {
	s.apply(eventSignedOut, nil)
	s.client.handleStaleSession(context.Background())
}

// subscribe attaches to the auth event stream. Losing the subscription is
// logged, not fatal; state changes then come only from local calls.
func (s *SessionStore) subscribe(ctx context.Context) {
	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	sub, err := s.client.OnAuthStateChange(ctx, func(ev AuthEvent) {
		switch ev.Type {
		case EventSignedIn:
			s.apply(eventSignedIn, ev.Session)
		case EventTokenRefreshed:
			s.apply(eventRefreshed, ev.Session)
		case EventSignedOut:
			s.apply(eventSignedOut, nil)
		}
	})
	if err != nil {
		s.logger.Warn("auth event subscription failed", "error", err)
		return
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
}
