package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/repositories"
	"github.com/hoangpn/socialite/backend/internal/services"
)

// FollowHandler handles follower-relationship HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	notifications    *services.NotificationService
	logger           *zap.Logger
}

func NewFollowHandler(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	notifications *services.NotificationService,
	logger *zap.Logger,
) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		notifications:    notifications,
		logger:           logger,
	}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.Follow)
	g.DELETE("/users/:id/follow", h.Unfollow)
	g.GET("/users/:id/followers", h.Followers)
	g.GET("/users/:id/following", h.Following)
	g.GET("/users/:id/is-following", h.IsFollowing)
	g.GET("/users/:id/follow-counts", h.FollowCounts)
}

// Follow makes the caller follow the target user and notifies them
func (h *FollowHandler) Follow(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	userID := getUserIDFromContext(c)
	if targetID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot follow yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return httpError(err)
	}

	if err := h.followRepository.Follow(ctx, userID, targetID); err != nil {
		return httpError(err)
	}

	if _, err := h.notifications.NotifyFollow(ctx, targetID, userID); err != nil {
		h.logger.Warn("notify follow", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Unfollow removes the caller's follow of the target user
func (h *FollowHandler) Unfollow(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.followRepository.Unfollow(c.Request().Context(), getUserIDFromContext(c), targetID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Followers lists the users following the target user
func (h *FollowHandler) Followers(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ids, err := h.followRepository.ListFollowerIDs(ctx, targetID)
	if err != nil {
		return httpError(err)
	}

	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}

// Following lists the users the target user follows
func (h *FollowHandler) Following(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	ids, err := h.followRepository.ListFollowingIDs(ctx, targetID)
	if err != nil {
		return httpError(err)
	}

	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": users}})
}

// IsFollowing reports whether the caller follows the target user
func (h *FollowHandler) IsFollowing(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	following, err := h.followRepository.IsFollowing(c.Request().Context(), getUserIDFromContext(c), targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"is_following": following}})
}

// FollowCounts reports follower and following totals for a user
func (h *FollowHandler) FollowCounts(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	followers, err := h.followRepository.CountFollowers(ctx, targetID)
	if err != nil {
		return httpError(err)
	}
	following, err := h.followRepository.CountFollowing(ctx, targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"followers": followers,
		"following": following,
	}})
}
