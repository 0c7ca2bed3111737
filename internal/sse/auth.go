package sse

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

// AuthEventType names a change in a user's authentication state.
type AuthEventType string

const (
	AuthSignedIn    AuthEventType = "signed_in"
	AuthSignedOut   AuthEventType = "signed_out"
	AuthUserUpdated AuthEventType = "user_updated"
)

// AuthEvent is delivered to a user's auth stream subscribers.
// User is nil for signed_out.
type AuthEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	User      *domain.User  `json:"user"`
	Type      AuthEventType `json:"type"`

	// SessionID limits a signed_out event to one session's subscribers.
	// Empty means every session of the user.
	SessionID string `json:"-"`
}

// AuthSubscriber receives the auth events of one user session.
type AuthSubscriber struct {
	CreatedAt time.Time
	EventChan chan AuthEvent
	Done      chan struct{}
	UserID    string
	SessionID string
	closeOnce sync.Once
}

// AuthBroadcaster fans auth state changes out to connected clients, keyed by user.
// It is created once and shared by the services that publish into it.
type AuthBroadcaster struct {
	subscribers map[string][]*AuthSubscriber
	logger      *slog.Logger
	mu          sync.RWMutex
}

// NewAuthBroadcaster creates an empty broadcaster.
func NewAuthBroadcaster(logger *slog.Logger) *AuthBroadcaster {
	return &AuthBroadcaster{
		subscribers: make(map[string][]*AuthSubscriber),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for userID's session.
// The caller must call Unsubscribe when done.
func (b *AuthBroadcaster) Subscribe(userID, sessionID string) *AuthSubscriber {
	sub := &AuthSubscriber{
		UserID:    userID,
		SessionID: sessionID,
		EventChan: make(chan AuthEvent, 10),
		Done:      make(chan struct{}),
		CreatedAt: time.Now(),
	}

	b.mu.Lock()
	b.subscribers[userID] = append(b.subscribers[userID], sub)
	userSubs := len(b.subscribers[userID])
	b.mu.Unlock()

	b.logger.Debug("auth subscriber added",
		slog.String("user_id", userID),
		slog.Int("user_subscribers", userSubs))

	return sub
}

// Unsubscribe removes a subscriber and closes its channels. Safe to call twice.
func (b *AuthBroadcaster) Unsubscribe(sub *AuthSubscriber) {
	b.mu.Lock()
	subs := b.subscribers[sub.UserID]
	for i, s := range subs {
		if s == sub {
			b.subscribers[sub.UserID] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[sub.UserID]) == 0 {
		delete(b.subscribers, sub.UserID)
	}
	sub.closeOnce.Do(func() {
		close(sub.Done)
		close(sub.EventChan)
	})
	b.mu.Unlock()

	b.logger.Debug("auth subscriber removed",
		slog.String("user_id", sub.UserID),
		slog.Duration("duration", time.Since(sub.CreatedAt)))
}

// SignedIn announces a new session for user.
func (b *AuthBroadcaster) SignedIn(user *domain.User) {
	b.publish(user.ID, AuthEvent{Type: AuthSignedIn, User: user})
}

// SignedOut announces the end of sessionID, or of every session when sessionID is empty.
func (b *AuthBroadcaster) SignedOut(userID, sessionID string) {
	b.publish(userID, AuthEvent{Type: AuthSignedOut, SessionID: sessionID})
}

// UserUpdated announces a profile change.
func (b *AuthBroadcaster) UserUpdated(user *domain.User) {
	b.publish(user.ID, AuthEvent{Type: AuthUserUpdated, User: user})
}

func (b *AuthBroadcaster) publish(userID string, event AuthEvent) {
	event.Timestamp = time.Now()

	// Delivery happens under the read lock so Unsubscribe cannot close a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subscribers[userID]
	if len(subs) == 0 {
		return
	}

	var delivered, dropped int
	for _, sub := range subs {
		if event.SessionID != "" && sub.SessionID != "" && event.SessionID != sub.SessionID {
			continue
		}
		select {
		case sub.EventChan <- event:
			delivered++
		default:
			dropped++
		}
	}

	b.logger.Debug("auth event broadcast",
		slog.String("user_id", userID),
		slog.String("type", string(event.Type)),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped))
}

// SubscriberCount returns the total number of active subscribers.
func (b *AuthBroadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, subs := range b.subscribers {
		count += len(subs)
	}
	return count
}
