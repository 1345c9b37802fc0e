package operator

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/slingshot/internal/logging"
	"github.com/playmatatu/slingshot/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound     = errors.New("operator not found")
	ErrInvalidToken = errors.New("invalid operator token")
)

// GetOperator loads an active operator by name.
func GetOperator(db *sqlx.DB, name string) (*models.Operator, error) {
	var op models.Operator
	err := db.Get(&op, `SELECT id, name, display_name, token_hash, is_active, created_at, last_seen_at FROM operators WHERE name=$1 AND is_active`, name)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// VerifyToken checks a plain token against its bcrypt hash.
func VerifyToken(hashedToken, plainToken string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken)) == nil
}

// HashToken hashes a plain token for storage.
func HashToken(plainToken string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(h), nil
}

// CreateOperator inserts or replaces an operator (used for seeding).
func CreateOperator(db *sqlx.DB, name, displayName, plainToken string) error {
	hashed, err := HashToken(plainToken)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO operators (name, display_name, token_hash, is_active, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			is_active = TRUE
	`, name, displayName, hashed)
	return err
}

// Authenticate validates a name and token pair.
func Authenticate(db *sqlx.DB, name, token string) (*models.Operator, error) {
	log := logging.Named("operator")

	op, err := GetOperator(db, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("unknown operator", zap.String("name", name))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyToken(op.TokenHash, token) {
		log.Warn("operator token rejected", zap.String("name", name))
		return nil, ErrInvalidToken
	}

	if _, err := db.Exec(`UPDATE operators SET last_seen_at = NOW() WHERE id = $1`, op.ID); err != nil {
		log.Warn("failed to update last_seen_at", zap.String("name", name), zap.Error(err))
	}
	return op, nil
}

// LogAction records an operator action in the audit log.
func LogAction(db *sqlx.DB, operatorID int, ip, action string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO operator_audit (operator_id, action, details, ip, created_at)
		VALUES ($1, $2, $3::jsonb, $4, NOW())
	`, operatorID, action, string(detailsJSON), ip)
	if err != nil {
		logging.Named("operator").Error("failed to log operator action", zap.String("action", action), zap.Error(err))
	}
	return err
}

// AuditLog returns the most recent operator actions.
func AuditLog(db *sqlx.DB, limit, offset int) ([]models.OperatorAudit, error) {
	logs := []models.OperatorAudit{}
	err := db.Select(&logs, `
		SELECT id, operator_id, action, details, ip, created_at
		FROM operator_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}
