package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/slingshot/internal/game"
	"github.com/playmatatu/slingshot/internal/logging"
	"github.com/playmatatu/slingshot/internal/operator"
	"go.uber.org/zap"
)

// GetTuning returns the tuning new sessions start with.
func GetTuning(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tuning": mgr.Tuning(), "courses": game.CourseNames()})
	}
}

// UpdateTuning lets an operator replace tuning fields. Fields missing from
// the body keep their current values.
func UpdateTuning(db *sqlx.DB, mgr *game.SessionManager) gin.HandlerFunc {
	log := logging.Named("api")
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Operator accounts not configured"})
			return
		}

		name := strings.TrimSpace(c.GetHeader("X-Operator-Name"))
		token := strings.TrimSpace(c.GetHeader("X-Operator-Token"))
		if name == "" || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Operator credentials required"})
			return
		}

		op, err := operator.Authenticate(db, name, token)
		if errors.Is(err, operator.ErrNotFound) || errors.Is(err, operator.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid operator credentials"})
			return
		}
		if err != nil {
			log.Error("operator lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify operator"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		t := mgr.Tuning()
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tuning", "detail": err.Error()})
			return
		}
		if err := mgr.SetTuning(t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tuning", "detail": err.Error()})
			return
		}

		operator.LogAction(db, op.ID, c.ClientIP(), "update_tuning", json.RawMessage(body))
		log.Info("tuning updated by operator", zap.String("operator", op.Name))
		c.JSON(http.StatusOK, gin.H{"tuning": t})
	}
}
