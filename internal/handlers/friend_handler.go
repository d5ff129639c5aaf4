package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/repositories"
	"github.com/hoangpn/socialite/backend/internal/services"
)

// FriendHandler handles friendship HTTP requests
type FriendHandler struct {
	friendRepository repositories.FriendRepository
	userRepository   repositories.UserRepository
	notifications    *services.NotificationService
	logger           *zap.Logger
}

func NewFriendHandler(
	friendRepo repositories.FriendRepository,
	userRepo repositories.UserRepository,
	notifications *services.NotificationService,
	logger *zap.Logger,
) *FriendHandler {
	return &FriendHandler{
		friendRepository: friendRepo,
		userRepository:   userRepo,
		notifications:    notifications,
		logger:           logger,
	}
}

// RegisterFriendRoutes registers friendship routes
func (h *FriendHandler) RegisterFriendRoutes(g *echo.Group) {
	g.GET("/friends", h.ListFriends)
	g.GET("/friends/requests", h.ListRequests)
	g.GET("/friends/status/:id", h.Status)
	g.POST("/friends/requests/:id", h.SendRequest)
	g.PUT("/friends/requests/:id/accept", h.AcceptRequest)
	g.PUT("/friends/requests/:id/reject", h.RejectRequest)
	g.DELETE("/friends/:id", h.Unfriend)
}

// ListFriends lists the caller's accepted friends
func (h *FriendHandler) ListFriends(c echo.Context) error {
	ctx := c.Request().Context()
	ids, err := h.friendRepository.ListFriendIDs(ctx, getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}

	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"friends": users}})
}

// ListRequests lists pending requests addressed to the caller
func (h *FriendHandler) ListRequests(c echo.Context) error {
	requests, err := h.friendRepository.ListPendingFor(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"requests": requests}})
}

// Status reports the friendship status between the caller and a user
func (h *FriendHandler) Status(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	friendship, err := h.friendRepository.GetBetween(c.Request().Context(), getUserIDFromContext(c), targetID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": "none"}})
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": friendship.Status}})
}

// SendRequest creates a pending friendship and notifies the recipient
func (h *FriendHandler) SendRequest(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	userID := getUserIDFromContext(c)
	if targetID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot friend yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return httpError(err)
	}

	if existing, err := h.friendRepository.GetBetween(ctx, userID, targetID); err == nil {
		if existing.Status == models.FriendStatusBlocked {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to send friend request")
		}
		return echo.NewHTTPError(http.StatusConflict, "A friendship or request already exists")
	}

	friendship := &models.Friendship{RequesterID: userID, RecipientID: targetID}
	if err := h.friendRepository.CreateRequest(ctx, friendship); err != nil {
		return httpError(err)
	}

	if _, err := h.notifications.NotifyFriendRequest(ctx, targetID, userID); err != nil {
		h.logger.Warn("notify friend request", zap.Error(err))
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"request": friendship}})
}

// AcceptRequest accepts a pending request addressed to the caller and
// notifies the requester
func (h *FriendHandler) AcceptRequest(c echo.Context) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	friendship, err := h.friendRepository.GetByID(ctx, requestID)
	if err != nil {
		return httpError(err)
	}

	userID := getUserIDFromContext(c)
	if friendship.RecipientID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the recipient may accept a request")
	}
	if friendship.Status != models.FriendStatusPending {
		return echo.NewHTTPError(http.StatusConflict, "Request is not pending")
	}

	if err := h.friendRepository.UpdateStatus(ctx, requestID, models.FriendStatusAccepted); err != nil {
		return httpError(err)
	}

	if _, err := h.notifications.NotifyFriendAccept(ctx, friendship.RequesterID, userID); err != nil {
		h.logger.Warn("notify friend accept", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RejectRequest removes a pending request addressed to the caller
func (h *FriendHandler) RejectRequest(c echo.Context) error {
	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	friendship, err := h.friendRepository.GetByID(ctx, requestID)
	if err != nil {
		return httpError(err)
	}
	if friendship.RecipientID != getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the recipient may reject a request")
	}

	if err := h.friendRepository.Delete(ctx, requestID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Unfriend removes an accepted friendship with the given user
func (h *FriendHandler) Unfriend(c echo.Context) error {
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	friendship, err := h.friendRepository.GetBetween(ctx, getUserIDFromContext(c), targetID)
	if err != nil {
		return httpError(err)
	}

	if err := h.friendRepository.Delete(ctx, friendship.ID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
