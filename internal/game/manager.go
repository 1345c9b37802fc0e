package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/logging"
	"github.com/playmatatu/slingshot/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// EventsChannel carries SessionEvents between instances.
	EventsChannel = "session_events"
	// IdleSet scores each session id by the unix time it goes idle.
	IdleSet = "session_idle"
)

// SessionEvent is a notable moment in a session, relayed to every socket
// watching it on any instance.
type SessionEvent struct {
	SessionID string      `json:"session_id"`
	Kind      string      `json:"kind"` // capture, rest, out_of_bounds, launch, ended
	Tick      uint64      `json:"tick"`
	Position  *[3]float64 `json:"position,omitempty"`
	Shot      int         `json:"shot,omitempty"`
	Speed     float64     `json:"speed,omitempty"`
}

// FrameHandler receives frames from session goroutines and must not block.
type FrameHandler func(sessionID string, f Frame)

// EventHandler receives session events.
type EventHandler func(SessionEvent)

// SessionManager owns every live session on this instance.
type SessionManager struct {
	sessions map[string]*Session
	tuning   Tuning
	mu       sync.RWMutex

	rdb      *redis.Client // snapshots, idle tracking and event fan-out; optional
	db       *sqlx.DB      // shot journal; optional
	cfg      *config.Config
	recorder *Recorder

	handlerMu sync.RWMutex
	frames    FrameHandler
	events    EventHandler

	ctx context.Context
	log *zap.Logger
}

// NewSessionManager creates a manager. Sessions it starts stop when ctx is
// cancelled.
func NewSessionManager(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, tuning Tuning) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		tuning:   tuning,
		rdb:      rdb,
		db:       db,
		cfg:      cfg,
		recorder: NewRecorder(db, logging.Named("db")),
		ctx:      ctx,
		log:      logging.Named("game"),
	}
}

// Recorder is the shot journal writer, nil without a database.
func (m *SessionManager) Recorder() *Recorder { return m.recorder }

func (m *SessionManager) SetFrameHandler(h FrameHandler) {
	m.handlerMu.Lock()
	m.frames = h
	m.handlerMu.Unlock()
}

// SetEventHandler sets where session events go. With Redis configured they
// are published and the handler is expected to be fed by a subscriber.
func (m *SessionManager) SetEventHandler(h EventHandler) {
	m.handlerMu.Lock()
	m.events = h
	m.handlerMu.Unlock()
}

// Tuning is the tuning new sessions start with.
func (m *SessionManager) Tuning() Tuning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tuning
}

// SetTuning replaces the tuning for sessions created from now on.
func (m *SessionManager) SetTuning(t Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.tuning = t
	m.mu.Unlock()
	m.log.Info("tuning updated")
	return nil
}

// Create starts a new session on the named course.
func (m *SessionManager) Create(courseName string, vr bool) (*Session, error) {
	course, err := LookupCourse(courseName)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := NewSession(id, course, m.Tuning(), m.cfg.TickRate, vr, SessionHooks{
		OnFrame: func(f Frame) { m.dispatchFrame(id, f) },
		OnLaunch: func(l Launch) {
			m.recorder.Record(id, l)
			m.publish(SessionEvent{SessionID: id, Kind: "launch", Tick: l.Tick, Shot: l.Shot, Speed: l.Velocity.Len()})
		},
		OnEvent: func(e Event, f Frame) {
			pos := [3]float64(e.Position)
			m.publish(SessionEvent{SessionID: id, Kind: string(e.Kind), Tick: f.Tick, Position: &pos, Shot: f.Shots, Speed: e.Speed})
			go m.saveSnapshot(id, f)
		},
	})

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	go func() {
		if err := s.Run(m.ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error("session loop exited", zap.String("session", id), zap.Error(err))
		}
	}()
	s.claimTouch(time.Now(), 0)
	m.Touch(id)

	m.log.Info("session created", zap.String("session", id), zap.String("course", course.Name), zap.Bool("vr", vr))
	return s, nil
}

// Get returns a live session on this instance.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End stops a session and forgets it.
func (m *SessionManager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.Stop()
	if m.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.rdb.ZRem(ctx, IdleSet, id).Err(); err != nil {
			m.log.Warn("failed to clear idle entry", zap.String("session", id), zap.Error(err))
		}
		if err := m.rdb.Del(ctx, snapshotKey(id)).Err(); err != nil {
			m.log.Warn("failed to delete snapshot", zap.String("session", id), zap.Error(err))
		}
	}
	m.publish(SessionEvent{SessionID: id, Kind: "ended"})
	m.log.Info("session ended", zap.String("session", id))
	return nil
}

// Count is the number of live sessions on this instance.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// touchEvery limits how often input refreshes a session's idle deadline in
// Redis; pointer and pose streams arrive far faster.
const touchEvery = 5 * time.Second

// Submit forwards an input to a session and refreshes its idle deadline.
func (m *SessionManager) Submit(ctx context.Context, id string, in Input) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := s.Submit(ctx, in); err != nil {
		return err
	}
	if s.claimTouch(time.Now(), touchEvery) {
		m.Touch(id)
	}
	return nil
}

// Frame returns the current frame of a session, falling back to the Redis
// snapshot when the session lives on another instance.
func (m *SessionManager) Frame(ctx context.Context, id string) (Frame, error) {
	if s, err := m.Get(id); err == nil {
		return s.Snapshot(ctx)
	}
	return m.loadSnapshot(ctx, id)
}

// Shots reads a session's shot journal.
func (m *SessionManager) Shots(ctx context.Context, id string, limit int) ([]models.Shot, error) {
	if m.db == nil {
		return nil, ErrJournalDisabled
	}
	return ListShots(ctx, m.db, id, limit)
}

// Touch pushes a session's idle deadline forward.
func (m *SessionManager) Touch(id string) {
	if m.rdb == nil {
		return
	}
	deadline := time.Now().Add(m.idleTimeout()).Unix()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.rdb.ZAdd(ctx, IdleSet, redis.Z{Score: float64(deadline), Member: id}).Err(); err != nil {
		m.log.Warn("failed to refresh idle deadline", zap.String("session", id), zap.Error(err))
	}
}

// ReapIdle ends every session on this instance whose idle deadline has
// passed and returns how many it ended. Expired members owned by other
// instances are left for their owners.
func (m *SessionManager) ReapIdle(ctx context.Context) (int, error) {
	if m.rdb == nil {
		return m.reapLocal(), nil
	}

	now := time.Now()
	members, err := m.rdb.ZRangeByScore(ctx, IdleSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("fetch idle sessions: %w", err)
	}

	ended := 0
	for _, id := range members {
		if _, err := m.Get(id); err != nil {
			continue
		}
		if err := m.End(id); err == nil {
			ended++
		}
	}

	// A member nobody reaped for a whole idle period belongs to an instance
	// that is gone.
	abandoned := now.Add(-m.idleTimeout()).Unix()
	if err := m.rdb.ZRemRangeByScore(ctx, IdleSet, "-inf", "("+strconv.FormatInt(abandoned, 10)).Err(); err != nil {
		m.log.Warn("failed to drop abandoned idle entries", zap.Error(err))
	}
	return ended, nil
}

func (m *SessionManager) reapLocal() int {
	cutoff := time.Now().Add(-m.idleTimeout())

	m.mu.RLock()
	var idle []string
	for id, s := range m.sessions {
		if s.LastActivity().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		m.End(id)
	}
	return len(idle)
}

func (m *SessionManager) idleTimeout() time.Duration {
	secs := m.cfg.SessionIdleSeconds
	if secs <= 0 {
		secs = 600
	}
	return time.Duration(secs) * time.Second
}

func (m *SessionManager) dispatchFrame(id string, f Frame) {
	m.handlerMu.RLock()
	h := m.frames
	m.handlerMu.RUnlock()
	if h != nil {
		h(id, f)
	}
}

// Dispatch hands an event to the local handler. The Redis subscriber calls
// it for every event published by any instance.
func (m *SessionManager) Dispatch(ev SessionEvent) {
	m.handlerMu.RLock()
	h := m.events
	m.handlerMu.RUnlock()
	if h != nil {
		h(ev)
	}
}

func (m *SessionManager) publish(ev SessionEvent) {
	if m.rdb == nil {
		m.Dispatch(ev)
		return
	}

	b, err := json.Marshal(ev)
	if err != nil {
		m.log.Error("failed to marshal session event", zap.String("session", ev.SessionID), zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.rdb.Publish(ctx, EventsChannel, b).Err(); err != nil {
			m.log.Warn("publish session event failed", zap.String("session", ev.SessionID), zap.String("kind", ev.Kind), zap.Error(err))
		}
	}()
}

func snapshotKey(id string) string {
	return "session:" + id + ":state"
}

func (m *SessionManager) saveSnapshot(id string, f Frame) {
	if m.rdb == nil {
		return
	}
	data, err := json.Marshal(f)
	if err != nil {
		m.log.Error("failed to marshal snapshot", zap.String("session", id), zap.Error(err))
		return
	}

	ttl := time.Duration(m.cfg.SnapshotTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.rdb.SetEx(ctx, snapshotKey(id), data, ttl).Err(); err != nil {
		m.log.Warn("failed to save snapshot", zap.String("session", id), zap.Error(err))
	}
}

func (m *SessionManager) loadSnapshot(ctx context.Context, id string) (Frame, error) {
	if m.rdb == nil {
		return Frame{}, ErrSessionNotFound
	}
	data, err := m.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if err == redis.Nil {
		return Frame{}, ErrSessionNotFound
	}
	if err != nil {
		return Frame{}, fmt.Errorf("load snapshot: %w", err)
	}

	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return f, nil
}
