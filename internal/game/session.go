package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/playmatatu/slingshot/internal/logging"
	"go.uber.org/zap"
)

// SessionHooks receive a session's output. They run on the session goroutine
// and must not block.
type SessionHooks struct {
	OnFrame  func(Frame)
	OnLaunch func(Launch)
	// OnEvent gets rest, capture and out-of-bounds events with the frame
	// that follows them. Bounces are only visible in frames.
	OnEvent func(Event, Frame)
}

// Session runs one GameState on its own goroutine. Every read and write of
// the state happens there.
type Session struct {
	ID        string
	Course    string
	VR        bool
	CreatedAt time.Time

	state    *GameState
	interval time.Duration
	hooks    SessionHooks

	inputs  chan Input
	queries chan chan Frame
	done    chan struct{}
	once    sync.Once

	lastActivity atomic.Int64
	lastTouch    atomic.Int64 // unix nanos of the last idle-deadline refresh
	lastFrame    uint64
	log          *zap.Logger
}

const inputBuffer = 64

func NewSession(id string, course Course, tuning Tuning, tickRate int, vr bool, hooks SessionHooks) *Session {
	if tickRate <= 0 {
		tickRate = 60
	}
	s := &Session{
		ID:        id,
		Course:    course.Name,
		VR:        vr,
		CreatedAt: time.Now(),
		state:     NewGameState(course, tuning, tickRate),
		interval:  time.Second / time.Duration(tickRate),
		hooks:     hooks,
		inputs:    make(chan Input, inputBuffer),
		queries:   make(chan chan Frame),
		done:      make(chan struct{}),
		log:       logging.Named("game").With(zap.String("session", id)),
	}
	s.touch()
	return s
}

// Run drives the session until ctx is cancelled or Stop is called.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("session started", zap.String("course", s.Course), zap.Bool("vr", s.VR))
	defer s.log.Info("session stopped", zap.Int("shots", s.state.Shots()))

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-s.done:
			return nil
		case in := <-s.inputs:
			s.apply(in)
		case reply := <-s.queries:
			reply <- s.state.Frame()
		case <-ticker.C:
			s.step()
		}
	}
}

// Submit queues an input. It blocks while the queue is full.
func (s *Session) Submit(ctx context.Context, in Input) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.inputs <- in:
		s.touch()
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot asks the session goroutine for its current frame.
func (s *Session) Snapshot(ctx context.Context) (Frame, error) {
	select {
	case <-s.done:
		return Frame{}, ErrSessionClosed
	default:
	}

	reply := make(chan Frame, 1)
	select {
	case s.queries <- reply:
	case <-s.done:
		return Frame{}, ErrSessionClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}

	select {
	case f := <-reply:
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Stop ends the session. Safe to call more than once.
func (s *Session) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

// claimTouch reports whether the caller should refresh the shared idle
// deadline: true at most once per every, across goroutines.
func (s *Session) claimTouch(now time.Time, every time.Duration) bool {
	last := s.lastTouch.Load()
	if last != 0 && now.UnixNano()-last < int64(every) {
		return false
	}
	return s.lastTouch.CompareAndSwap(last, now.UnixNano())
}

func (s *Session) apply(in Input) {
	defer s.rescue(in.Kind())

	if err := in.apply(s.state); err != nil {
		if errors.Is(err, ErrControllerUnavailable) {
			s.log.Warn("controller lost mid-gesture", zap.String("input", in.Kind()))
		} else {
			s.log.Debug("input ignored", zap.String("input", in.Kind()), zap.Error(err))
		}
	}
	s.flushLaunches()
}

func (s *Session) step() {
	defer s.rescue("tick")

	events := s.state.Tick()
	s.flushLaunches()
	f := s.state.Frame()

	if s.hooks.OnEvent != nil {
		for _, e := range events {
			if e.Kind != EventBounce {
				s.hooks.OnEvent(e, f)
			}
		}
	}
	s.emit(f)
}

// emit sends the current frame unless it is identical to the previous one
// apart from the tick counter.
func (s *Session) emit(f Frame) {
	if s.hooks.OnFrame == nil {
		return
	}
	sum, err := fingerprint(f)
	if err == nil && sum == s.lastFrame {
		return
	}
	s.lastFrame = sum
	s.hooks.OnFrame(f)
}

func (s *Session) flushLaunches() {
	for _, l := range s.state.DrainLaunches() {
		s.log.Debug("launch",
			zap.Int("shot", l.Shot),
			zap.String("mode", string(l.Mode)),
			zap.Float64("speed", l.Velocity.Len()),
			zap.Bool("vr", l.VR),
		)
		if s.hooks.OnLaunch != nil {
			s.hooks.OnLaunch(l)
		}
	}
}

// rescue turns a panic in input handling or ticking into an aborted gesture
// so the loop keeps running.
func (s *Session) rescue(where string) {
	r := recover()
	if r == nil {
		return
	}
	s.log.Error("recovered panic", zap.String("where", where), zap.Any("panic", r), zap.Stack("stack"))

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("abort after panic failed", zap.Any("panic", r))
		}
	}()
	s.state.AbortGesture()
}

func fingerprint(f Frame) (uint64, error) {
	f.Tick = 0
	data, err := json.Marshal(f)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}
