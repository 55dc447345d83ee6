package app

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

// Recorder appends detection results to a stored session.
type Recorder struct {
	repo    *store.SessionRepository
	session *store.Session
	logger  *zap.Logger

	mu    sync.Mutex
	seq   int
	start time.Time
}

// NewRecorder creates a session named name and returns a recorder for it.
func NewRecorder(s *store.Store, name string, logger *zap.Logger) (*Recorder, error) {
	sess := &store.Session{Name: name}
	repo := s.Sessions()
	if err := repo.Create(sess); err != nil {
		return nil, fmt.Errorf("create session %q: %w", name, err)
	}

	logger.Info("recording session", zap.String("id", sess.ID), zap.String("name", name))
	return &Recorder{
		repo:    repo,
		session: sess,
		logger:  logger,
	}, nil
}

// Session returns the session being recorded.
func (r *Recorder) Session() *store.Session {
	return r.session
}

// Frames returns the number of frames recorded so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Record stores one result. A nil hand records a frame without a hand.
// Timestamps are relative to the first recorded frame.
func (r *Recorder) Record(hand *detector.HandLandmarks, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seq == 0 {
		r.start = at
	}
	f := store.Frame{
		Sequence:    r.seq,
		TimestampMs: at.Sub(r.start).Milliseconds(),
		Hand:        hand,
	}
	if err := r.repo.AppendFrame(r.session.ID, f); err != nil {
		return err
	}
	r.seq++
	return nil
}
