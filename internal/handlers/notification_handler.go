package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/services"
)

// NotificationHandler handles notification HTTP requests. Recipient
// ownership is checked here; the service trusts its callers.
type NotificationHandler struct {
	notifications *services.NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications *services.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.ListNotifications)
	g.GET("/notifications/count", h.CountNotifications)
	g.PUT("/notifications/:id/read", h.MarkRead)
	g.PUT("/notifications/read-all", h.MarkAllRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
	g.DELETE("/notifications", h.DeleteAllNotifications)
}

// ListNotifications returns a cursor-paginated notification feed for the caller
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	limit := parseLimit(c, 20, 50)
	connection, err := h.notifications.List(c.Request().Context(), getUserIDFromContext(c), c.QueryParam("cursor"), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": connection})
}

// CountNotifications returns total and unread counts for the caller
func (h *NotificationHandler) CountNotifications(c echo.Context) error {
	total, unread, err := h.notifications.Count(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"total":  total,
		"unread": unread,
	}})
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	notification, err := h.notifications.Get(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if notification.RecipientID != getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Not your notification")
	}

	notification, err = h.notifications.MarkRead(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"notification": notification}})
}

// MarkAllRead marks every unread notification of the caller as read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	modified, err := h.notifications.MarkAllRead(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"modified": modified}})
}

// DeleteNotification removes one of the caller's notifications
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	notification, err := h.notifications.Get(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if notification.RecipientID != getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "Not your notification")
	}

	if err := h.notifications.Delete(ctx, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteAllNotifications clears the caller's notification feed
func (h *NotificationHandler) DeleteAllNotifications(c echo.Context) error {
	deleted, err := h.notifications.DeleteAll(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"deleted": deleted}})
}
