package api

import (
	"errors"
	"net/http"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(ok bool)
}

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
	recorder    LoginRecorder
	log         logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, recorder LoginRecorder, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{authService: authService, recorder: recorder, log: log}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login godoc
// @Summary Log in a user
// @Description Checks the credentials against the identity table and opens a session.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Body is not JSON"
// @Failure 401 {object} gin.H "Invalid credentials"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	// Empty fields are just another non-matching pair and end up as 401.
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "request body must be JSON")
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.recordLogin(false)
		var authErr *service.AuthenticationError
		if errors.As(err, &authErr) {
			abortWithError(c, http.StatusUnauthorized, authErr.Message)
			return
		}
		h.log.WithError(err).Error("login")
		abortWithError(c, http.StatusInternalServerError, "Could not process login")
		return
	}

	h.recordLogin(true)
	h.log.WithField("username", user.Username).Info("user logged in")
	c.JSON(http.StatusOK, LoginResponse{Token: token, User: *user})
}

// Logout godoc
// @Summary End the current session
// @Tags Auth
// @Security BearerAuth
// @Success 204
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), currentSessionID(c)); err != nil {
		h.log.WithError(err).Error("logout")
		abortWithError(c, http.StatusInternalServerError, "Could not end session")
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the identity of the current session.
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		abortWithError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) recordLogin(ok bool) {
	if h.recorder != nil {
		h.recorder.RecordLogin(ok)
	}
}
