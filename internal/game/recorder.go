package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/slingshot/internal/models"
	"go.uber.org/zap"
)

type shotRecord struct {
	session string
	launch  Launch
}

// Recorder writes launches to the shot journal off the session goroutines.
// A nil *Recorder accepts and drops everything.
type Recorder struct {
	db    *sqlx.DB
	queue chan shotRecord
	log   *zap.Logger
}

const recorderBuffer = 256

func NewRecorder(db *sqlx.DB, log *zap.Logger) *Recorder {
	if db == nil {
		return nil
	}
	return &Recorder{db: db, queue: make(chan shotRecord, recorderBuffer), log: log}
}

// Record queues a launch. It never blocks; a full queue drops the shot.
func (r *Recorder) Record(sessionID string, l Launch) {
	if r == nil {
		return
	}
	select {
	case r.queue <- shotRecord{session: sessionID, launch: l}:
	default:
		r.log.Warn("shot journal queue full, dropping shot", zap.String("session", sessionID), zap.Int("shot", l.Shot))
	}
}

// Run drains the queue until ctx is cancelled, then writes what is left.
func (r *Recorder) Run(ctx context.Context) error {
	if r == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case rec := <-r.queue:
			r.write(ctx, rec)
		case <-ctx.Done():
			flush, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			for {
				select {
				case rec := <-r.queue:
					r.write(flush, rec)
				default:
					cancel()
					return nil
				}
			}
		}
	}
}

func (r *Recorder) write(ctx context.Context, rec shotRecord) {
	if err := insertShot(ctx, r.db, rec.session, rec.launch); err != nil {
		r.log.Error("failed to record shot", zap.String("session", rec.session), zap.Int("shot", rec.launch.Shot), zap.Error(err))
	}
}

func insertShot(ctx context.Context, db *sqlx.DB, sessionID string, l Launch) error {
	anchor, err := json.Marshal(l.Anchor)
	if err != nil {
		return fmt.Errorf("marshal anchor: %w", err)
	}
	offset, err := json.Marshal(l.Offset)
	if err != nil {
		return fmt.Errorf("marshal offset: %w", err)
	}
	velocity, err := json.Marshal(l.Velocity)
	if err != nil {
		return fmt.Errorf("marshal velocity: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO shots (session_id, shot_number, tick, mode, anchor, pull_offset, velocity, vr, created_at)
		 VALUES ($1,$2,$3,$4,$5::jsonb,$6::jsonb,$7::jsonb,$8,NOW())`,
		sessionID, l.Shot, int64(l.Tick), string(l.Mode), string(anchor), string(offset), string(velocity), l.VR,
	)
	return err
}

// ListShots returns a session's journal in shot order.
func ListShots(ctx context.Context, db *sqlx.DB, sessionID string, limit int) ([]models.Shot, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	shots := []models.Shot{}
	err := db.SelectContext(ctx, &shots,
		`SELECT id, session_id, shot_number, tick, mode, anchor, pull_offset, velocity, vr, created_at
		 FROM shots WHERE session_id = $1 ORDER BY shot_number LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list shots: %w", err)
	}
	return shots, nil
}
