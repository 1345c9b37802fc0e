package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/slingshot/internal/auth"
	"github.com/playmatatu/slingshot/internal/config"
	"github.com/playmatatu/slingshot/internal/game"
	"github.com/playmatatu/slingshot/internal/logging"
	"go.uber.org/zap"
)

type createSessionRequest struct {
	Course string `json:"course"`
	VR     bool   `json:"vr"`
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	WSURL     string    `json:"ws_url"`
	Course    string    `json:"course"`
}

// CreateSession starts a session and returns a token bound to it.
func CreateSession(mgr *game.SessionManager, cfg *config.Config) gin.HandlerFunc {
	log := logging.Named("api")
	return func(c *gin.Context) {
		var req createSessionRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
		}

		s, err := mgr.Create(strings.TrimSpace(req.Course), req.VR)
		if errors.Is(err, game.ErrUnknownCourse) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown course", "courses": game.CourseNames()})
			return
		}
		if err != nil {
			log.Error("create session failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		ttl := time.Duration(cfg.SessionTokenTTLMinute) * time.Minute
		token, exp, err := auth.IssueSessionToken(cfg.JWTSecret, s.ID, ttl)
		if err != nil {
			log.Error("issue session token failed", zap.String("session", s.ID), zap.Error(err))
			mgr.End(s.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		c.JSON(http.StatusCreated, createSessionResponse{
			SessionID: s.ID,
			Token:     token,
			ExpiresAt: exp,
			WSURL:     "/api/v1/sessions/" + s.ID + "/ws?token=" + token,
			Course:    s.Course,
		})
	}
}

// GetSession returns the current frame of a session.
func GetSession(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := mgr.Frame(c.Request.Context(), c.Param("id"))
		if errors.Is(err, game.ErrSessionNotFound) || errors.Is(err, game.ErrSessionClosed) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read session"})
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// EndSession stops a session. The caller must hold its token.
func EndSession(mgr *game.SessionManager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !authorizedFor(c, cfg, id) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			return
		}
		if err := mgr.End(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Session ended", "session_id": id})
	}
}

// ListShots returns the shot journal of a session.
func ListShots(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		shots, err := mgr.Shots(c.Request.Context(), c.Param("id"), limit)
		if errors.Is(err, game.ErrJournalDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Shot journal not configured"})
			return
		}
		if err != nil {
			logging.Named("api").Error("list shots failed", zap.String("session", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load shots"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": c.Param("id"), "shots": shots})
	}
}

// authorizedFor checks the bearer token grants the session id.
func authorizedFor(c *gin.Context, cfg *config.Config, id string) bool {
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" || token == header {
		return false
	}
	granted, err := auth.ParseSessionToken(cfg.JWTSecret, token)
	return err == nil && granted == id
}
