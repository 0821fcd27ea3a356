package controllers

import (
	"greenbasket/models"
	"greenbasket/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionController struct {
	secret string
	ttl    time.Duration
	logger *zap.Logger
}

type SessionResponse struct {
	Token     string    `json:"token"`
	CSRFToken string    `json:"csrfToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewSessionController(secret string, ttl time.Duration, logger *zap.Logger) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionController{secret: secret, ttl: ttl, logger: logger}
}

// @Summary Start a guest session
// @Description Issue a retail guest session token and its CSRF token. Wholesale
// @Description sessions are issued by the account service with the same secret.
// @Tags Session
// @Produce json
// @Success 201 {object} models.Response
// @Router /session [post]
func (ctrl *SessionController) CreateGuestSession(c *gin.Context) {
	session := utils.NewSession(false)
	token, err := utils.GenerateSessionToken(session, ctrl.secret, ctrl.ttl)
	if err != nil {
		ctrl.logger.Error("issue session token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Message: "Failed to start session",
		})
		return
	}

	c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: "Session started",
		Data: SessionResponse{
			Token:     token,
			CSRFToken: session.CSRFToken,
			ExpiresAt: time.Now().Add(ctrl.ttl),
		},
	})
}
