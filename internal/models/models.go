package models

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Shot is one launch in the shot journal. Vectors are stored as JSONB
// arrays of three numbers.
type Shot struct {
	ID         int            `db:"id" json:"id"`
	SessionID  string         `db:"session_id" json:"session_id"`
	ShotNumber int            `db:"shot_number" json:"shot_number"`
	Tick       int64          `db:"tick" json:"tick"`
	Mode       string         `db:"mode" json:"mode"`
	Anchor     types.JSONText `db:"anchor" json:"anchor"`
	Offset     types.JSONText `db:"pull_offset" json:"offset"`
	Velocity   types.JSONText `db:"velocity" json:"velocity"`
	VR         bool           `db:"vr" json:"vr"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Operator is someone allowed to change live tuning.
type Operator struct {
	ID          int          `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	DisplayName string       `db:"display_name" json:"display_name"`
	TokenHash   string       `db:"token_hash" json:"-"`
	IsActive    bool         `db:"is_active" json:"is_active"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	LastSeenAt  sql.NullTime `db:"last_seen_at" json:"last_seen_at,omitempty"`
}

// OperatorAudit records an operator action.
type OperatorAudit struct {
	ID         int            `db:"id" json:"id"`
	OperatorID int            `db:"operator_id" json:"operator_id"`
	Action     string         `db:"action" json:"action"`
	Details    types.JSONText `db:"details" json:"details"`
	IP         sql.NullString `db:"ip" json:"ip,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
