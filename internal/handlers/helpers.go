package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/middleware"
)

func getUserIDFromContext(c echo.Context) primitive.ObjectID {
	if id, ok := c.Get(middleware.ContextUserID).(primitive.ObjectID); ok {
		return id
	}
	return primitive.NilObjectID
}

func parseID(raw string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(raw)
}

func parseIDParam(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// parseLimit reads the limit query parameter, clamped to [0, max].
func parseLimit(c echo.Context, fallback, max int64) int64 {
	raw := c.QueryParam("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

// httpError maps service errors onto client-facing HTTP errors by kind.
func httpError(err error) error {
	switch {
	case apperr.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case apperr.IsInvalid(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case apperr.IsForbidden(err):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
