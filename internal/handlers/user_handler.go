package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/pagination"
	"github.com/hoangpn/socialite/backend/internal/repositories"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	userRepository repositories.UserRepository
}

func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterUserRoutes registers user routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/me", h.GetMe)
	g.GET("/users", h.ListUsers)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/me", h.UpdateProfile)
}

// GetMe returns the authenticated user's profile
func (h *UserHandler) GetMe(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": user}})
}

// GetUser returns a user profile by id
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": user}})
}

// ListUsers returns a cursor-paginated user listing
func (h *UserHandler) ListUsers(c echo.Context) error {
	limit := parseLimit(c, 20, 50)
	before, err := pagination.DecodeBound(c.QueryParam("cursor"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	users, err := h.userRepository.ListUsers(c.Request().Context(), before, limit)
	if err != nil {
		return httpError(err)
	}

	connection := pagination.Apply(users, limit, func(u models.User) string {
		return pagination.Encode(u.ID, u.CreatedAt)
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": connection})
}

type updateProfileRequest struct {
	Bio      *string `json:"bio"`
	ImageURL *string `json:"image_url" validate:"omitempty,url"`
}

// UpdateProfile updates the authenticated user's profile fields
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	update := bson.M{}
	if req.Bio != nil {
		update["bio"] = *req.Bio
	}
	if req.ImageURL != nil {
		update["image_url"] = *req.ImageURL
	}
	if len(update) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	userID := getUserIDFromContext(c)
	if err := h.userRepository.UpdateUser(c.Request().Context(), userID, update); err != nil {
		return httpError(err)
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"user": user}})
}
