package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/http/middleware"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/service"
)

// AuthHandler exposes the identity core over HTTP.
type AuthHandler struct {
	Auth *service.AuthService
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// Register creates a password account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FirstName string `json:"firstname" binding:"required"`
		LastName  string `json:"lastname" binding:"required"`
		Email     string `json:"email" binding:"required"`
		Password  string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}

	session, err := h.Auth.Register(c.Request.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "content": session})
}

// Login authenticates with email/password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}

	session, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User login successfully", "content": session})
}

// CheckSession reports whether the presented token is the account's
// current one. The token may arrive in the body wrapped in quote
// characters; the boundary strips them before verification.
func (h *AuthHandler) CheckSession(c *gin.Context) {
	raw := h.tokenFromRequest(c)
	if raw == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid_token", "message": "No token found!"})
		return
	}

	if _, err := h.Auth.CheckSession(c.Request.Context(), raw); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User have logged in!"})
}

// Logout clears the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Have not logged in!"})
		return
	}

	if err := h.Auth.Logout(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User logout successfully"})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Have not logged in!"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": gin.H{
		"id":        strconv.FormatInt(user.ID, 10),
		"email":     user.Email,
		"firstname": user.FirstName,
		"lastname":  user.LastName,
		"userImage": user.AvatarURL,
		"verified":  user.EmailVerified,
		"role":      user.Role,
	}})
}

// ProviderStart returns the provider authorization URL.
func (h *AuthHandler) ProviderStart(c *gin.Context) {
	authURL, err := h.Auth.StartProviderLogin(c.Request.Context(), c.Param("provider"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorization_url": authURL})
}

// ProviderCallback finishes a federated login.
func (h *AuthHandler) ProviderCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		badRequest(c, "state and code are required")
		return
	}

	session, err := h.Auth.CompleteProviderLogin(c.Request.Context(), c.Param("provider"), state, code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User login successfully", "content": session})
}

// ForgotPassword kicks off the recovery flow.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}

	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Send email successfully"})
}

// VerifyCode checks a submitted recovery code.
func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}

	if err := h.Auth.VerifyCode(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code is valid"})
}

// CheckVerified reports whether the recovery code is still pending.
func (h *AuthHandler) CheckVerified(c *gin.Context) {
	h.checkRecovery(c, h.Auth.CheckVerified, "Code is pending")
}

// CheckResetReady reports whether the reset step may proceed.
func (h *AuthHandler) CheckResetReady(c *gin.Context) {
	h.checkRecovery(c, h.Auth.CheckResetReady, "Code is confirmed")
}

func (h *AuthHandler) checkRecovery(c *gin.Context, check func(ctx context.Context, email string) error, okMessage string) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}

	if err := check(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": okMessage})
}

// ResetPassword sets a new password behind a confirmed code.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Please enter all fields")
		return
	}

	if err := h.Auth.ResetPassword(c.Request.Context(), req.Email, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *AuthHandler) tokenFromRequest(c *gin.Context) string {
	if raw := middleware.BearerToken(c); raw != "" {
		return raw
	}
	var req struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return middleware.StripQuotes(req.AccessToken)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": message})
}

func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	message := err.Error()

	switch kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindBadRequest, domain.KindInvalid:
		status = http.StatusBadRequest
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindProviderUnavailable, domain.KindDeliveryFailed:
		status = http.StatusBadGateway
	default:
		message = "Internal server error"
	}

	if de, ok := err.(*domain.Error); ok {
		c.JSON(status, gin.H{"error": string(de.Kind), "message": de.Message})
		return
	}
	c.JSON(status, gin.H{"error": "server_error", "message": message})
}
