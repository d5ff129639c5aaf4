package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/repositories"
	"github.com/hoangpn/socialite/backend/pkg/auth"
)

// AuthHandler handles registration, login and token refresh
type AuthHandler struct {
	userRepository  repositories.UserRepository
	tokenRepository repositories.RefreshTokenRepository
	jwtManager      *auth.JWTManager
	refreshTokenTTL time.Duration
}

func NewAuthHandler(
	userRepo repositories.UserRepository,
	tokenRepo repositories.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	refreshTokenTTL time.Duration,
) *AuthHandler {
	return &AuthHandler{
		userRepository:  userRepo,
		tokenRepository: tokenRepo,
		jwtManager:      jwtManager,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// RegisterAuthRoutes registers authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
}

// RegisterSessionRoutes registers authenticated session-management routes
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/auth/logout-all", h.LogoutAll)
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Register creates a new account
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Email already registered")
	}
	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return httpError(err)
	}

	return h.issueTokens(c, user, http.StatusCreated)
}

// Login authenticates credentials and issues tokens
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return h.issueTokens(c, user, http.StatusOK)
}

// Refresh rotates a refresh token and issues a fresh token pair
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	stored, err := h.tokenRepository.GetByToken(ctx, req.RefreshToken)
	if err != nil {
		if apperr.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
		}
		return httpError(err)
	}
	if time.Now().After(stored.ExpiresAt) {
		h.tokenRepository.DeleteByToken(ctx, req.RefreshToken)
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token expired")
	}

	user, err := h.userRepository.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	if err := h.tokenRepository.DeleteByToken(ctx, req.RefreshToken); err != nil {
		return httpError(err)
	}
	return h.issueTokens(c, user, http.StatusOK)
}

// Logout revokes the presented refresh token
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.tokenRepository.DeleteByToken(c.Request().Context(), req.RefreshToken); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// LogoutAll revokes every refresh token of the authenticated caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	if err := h.tokenRepository.DeleteByUser(c.Request().Context(), getUserIDFromContext(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *AuthHandler) issueTokens(c echo.Context, user *models.User, status int) error {
	accessToken, err := h.jwtManager.GenerateToken(user.ID, user.Username)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	refreshToken, err := randomToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: time.Now().Add(h.refreshTokenTTL),
	}
	if err := h.tokenRepository.Create(c.Request().Context(), record); err != nil {
		return httpError(err)
	}

	return c.JSON(status, echo.Map{
		"success": true,
		"data": echo.Map{
			"user":          user,
			"access_token":  accessToken,
			"refresh_token": refreshToken,
		},
	})
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
