package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/detector"
)

// Session is a recorded stream of landmark frames.
type Session struct {
	ID        string
	Name      string
	Frames    int
	CreatedAt time.Time
}

// Frame is one detection result within a session. Hand is nil when no hand
// was detected.
type Frame struct {
	Sequence    int
	TimestampMs int64
	Hand        *detector.HandLandmarks
}

// SessionRepository provides CRUD operations for recorded sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. An empty ID is filled with a fresh UUID.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	sess.CreatedAt = time.Now()
	sess.Frames = 0

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, name, frames, created_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Name, sess.Frames, sess.CreatedAt,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	err := r.db.QueryRow(
		`SELECT id, name, frames, created_at FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Name, &sess.Frames, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, name, frames, created_at FROM sessions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.Frames, &sess.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and, by cascade, its frames.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendFrame stores a frame and bumps the session's frame count.
func (r *SessionRepository) AppendFrame(sessionID string, f Frame) error {
	var points sql.NullString
	if f.Hand != nil {
		data, err := json.Marshal(f.Hand)
		if err != nil {
			return fmt.Errorf("encode landmarks: %w", err)
		}
		points = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE sessions SET frames = frames + 1 WHERE id = ?`, sessionID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(
		`INSERT INTO landmark_frames (session_id, sequence, timestamp_ms, points) VALUES (?, ?, ?, ?)`,
		sessionID, f.Sequence, f.TimestampMs, points,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// Frames returns every frame of a session in sequence order.
func (r *SessionRepository) Frames(sessionID string) ([]Frame, error) {
	if _, err := r.GetByID(sessionID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT sequence, timestamp_ms, points FROM landmark_frames
		 WHERE session_id = ? ORDER BY sequence, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		var points sql.NullString
		if err := rows.Scan(&f.Sequence, &f.TimestampMs, &points); err != nil {
			return nil, err
		}
		if points.Valid {
			f.Hand = &detector.HandLandmarks{}
			if err := json.Unmarshal([]byte(points.String), f.Hand); err != nil {
				return nil, fmt.Errorf("decode landmarks at sequence %d: %w", f.Sequence, err)
			}
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Hands flattens frames into the form consumed by detector.NewReplayDetector.
func Hands(frames []Frame) []*detector.HandLandmarks {
	out := make([]*detector.HandLandmarks, len(frames))
	for i := range frames {
		out[i] = frames[i].Hand
	}
	return out
}
