package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/collectwise/backend/internal/model/chat"
	"github.com/zhouzirui/collectwise/backend/internal/model/negotiation"
	engine "github.com/zhouzirui/collectwise/backend/internal/negotiation"
	"github.com/zhouzirui/collectwise/backend/internal/repository/history"
)

var (
	ErrMessageRequired = errors.New("message is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrAgreementLocked = errors.New("session already has a final agreement")
)

// Engine is the negotiation engine surface the service drives.
type Engine interface {
	Advance(ctx context.Context, state negotiation.State) (negotiation.State, error)
	PaymentLink(offerLabel string) string
}

// Result 描述一次用户提交后的结果。
type Result struct {
	Session     chat.Session
	State       negotiation.State
	Replies     []negotiation.Turn
	PaymentLink string
}

// Option customises the Service.
type Option func(*Service)

// WithGreeting sets the system turn every new session starts with.
func WithGreeting(greeting string) Option {
	return func(s *Service) {
		if strings.TrimSpace(greeting) != "" {
			s.greeting = greeting
		}
	}
}

// Service 管理会话状态：每个会话一把互斥锁，保证同一会话的回合串行执行。
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	engine   Engine
	history  history.Store
	greeting string
	now      func() time.Time
}

type entry struct {
	mu      sync.Mutex
	session chat.Session
	state   negotiation.State
}

// NewService wires the engine with an optional history store.
func NewService(e Engine, store history.Store, opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]*entry),
		engine:   e,
		history:  store,
		greeting: "Hello! Our records show that you currently owe $2400. Are you able to resolve this debt today?",
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Greeting returns the opening system turn of new sessions.
func (s *Service) Greeting() string {
	return s.greeting
}

// CreateSession provisions an anonymous session seeded with the greeting.
func (s *Service) CreateSession(ctx context.Context) (chat.Session, negotiation.State, error) {
	now := s.now()
	e := &entry{
		session: chat.Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		state:   s.initialState(),
	}

	s.mu.Lock()
	s.sessions[e.session.ID] = e
	s.mu.Unlock()

	s.persist(ctx, e)
	log.Printf("[chat] session created id=%s", e.session.ID)
	return e.session, e.state.Clone(), nil
}

// GetSession returns the session and its current state.
func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, negotiation.State, error) {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return chat.Session{}, negotiation.State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, e.state.Clone(), nil
}

// SubmitMessage 追加用户消息并推进谈判；只有引擎成功返回时才提交新状态。
func (s *Service) SubmitMessage(ctx context.Context, sessionID, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrMessageRequired
	}

	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.state.Clone()
	next.Turns = append(next.Turns, negotiation.UserTurn(text))

	advanced, err := s.engine.Advance(engine.WithSessionID(ctx, sessionID), next)
	if err != nil {
		return Result{}, fmt.Errorf("advance session %s: %w", sessionID, err)
	}

	e.state = advanced
	e.session.UpdatedAt = s.now()
	s.persist(ctx, e)

	return s.result(e, appendedTurns(advanced, len(next.Turns))), nil
}

// Reset 将会话恢复为仅包含开场白的初始状态。
func (s *Service) Reset(ctx context.Context, sessionID string) (negotiation.State, error) {
	return s.replace(ctx, sessionID, s.initialState())
}

// ReplaceTranscript overwrites the transcript; classification starts over.
// 已达成协议的会话不可覆盖，返回 ErrAgreementLocked；需要重来时先 Reset。
func (s *Service) ReplaceTranscript(ctx context.Context, sessionID string, turns []negotiation.Turn) (negotiation.State, error) {
	state := negotiation.State{Turns: append([]negotiation.Turn(nil), turns...)}.Normalize()

	e, err := s.lookup(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return s.adopt(ctx, sessionID, state), nil
	}
	if err != nil {
		return negotiation.State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.FinalAgreement != nil {
		return negotiation.State{}, ErrAgreementLocked
	}
	e.state = state
	e.session.UpdatedAt = s.now()
	s.persist(ctx, e)
	return e.state.Clone(), nil
}

// Forget drops the session from memory and history.
func (s *Service) Forget(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	_, cached := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if s.history == nil {
		if !cached {
			return ErrSessionNotFound
		}
		return nil
	}

	err := s.history.Delete(ctx, sessionID)
	if errors.Is(err, history.ErrNotFound) {
		if !cached {
			return ErrSessionNotFound
		}
		return nil
	}
	return err
}

// PaymentLink exposes the engine's link formatter for agreed plans.
func (s *Service) PaymentLink(state negotiation.State) string {
	if state.FinalAgreement == nil {
		return ""
	}
	return s.engine.PaymentLink(state.FinalAgreement.Label)
}

func (s *Service) replace(ctx context.Context, sessionID string, state negotiation.State) (negotiation.State, error) {
	e, err := s.lookup(ctx, sessionID)
	if err != nil {
		return negotiation.State{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = state
	e.session.UpdatedAt = s.now()
	s.persist(ctx, e)
	return e.state.Clone(), nil
}

// adopt registers a session under a caller-chosen id.
func (s *Service) adopt(ctx context.Context, sessionID string, state negotiation.State) negotiation.State {
	now := s.now()
	e := &entry{session: chat.Session{ID: sessionID, CreatedAt: now, UpdatedAt: now}, state: state}

	s.mu.Lock()
	if existing, ok := s.sessions[sessionID]; ok {
		e = existing
	} else {
		s.sessions[sessionID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.session.UpdatedAt = now
	s.persist(ctx, e)
	return e.state.Clone()
}

// lookup 优先读取内存会话，缺失时从历史记录恢复。
func (s *Service) lookup(ctx context.Context, sessionID string) (*entry, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	if s.history == nil {
		return nil, ErrSessionNotFound
	}

	record, err := s.history.Load(ctx, sessionID)
	if errors.Is(err, history.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", sessionID, err)
	}

	restored := &entry{
		session: chat.Session{ID: record.SessionID, CreatedAt: record.CreatedAt, UpdatedAt: record.UpdatedAt},
		state:   record.State.Normalize(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[sessionID]; ok {
		return existing, nil
	}
	s.sessions[sessionID] = restored
	log.Printf("[chat] session restored from history id=%s turns=%d", sessionID, len(restored.state.Turns))
	return restored, nil
}

// persist must be called with e.mu held.
func (s *Service) persist(ctx context.Context, e *entry) {
	if s.history == nil {
		return
	}
	err := s.history.Save(ctx, history.Record{
		SessionID: e.session.ID,
		State:     e.state,
		CreatedAt: e.session.CreatedAt,
	})
	if err != nil {
		log.Printf("[chat] persist session=%s failed: %v", e.session.ID, err)
	}
}

func (s *Service) initialState() negotiation.State {
	return negotiation.State{Turns: []negotiation.Turn{negotiation.SystemTurn(s.greeting)}}
}

func (s *Service) result(e *entry, replies []negotiation.Turn) Result {
	return Result{
		Session:     e.session,
		State:       e.state.Clone(),
		Replies:     replies,
		PaymentLink: s.PaymentLink(e.state),
	}
}

// appendedTurns returns the system turns the engine added after index from.
func appendedTurns(state negotiation.State, from int) []negotiation.Turn {
	if from >= len(state.Turns) {
		return []negotiation.Turn{}
	}
	return append([]negotiation.Turn(nil), state.Turns[from:]...)
}
