package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/pagination"
	"github.com/hoangpn/socialite/backend/internal/repositories"
)

// SavedPostHandler handles saved post HTTP requests
type SavedPostHandler struct {
	savedPostRepository repositories.SavedPostRepository
	postRepository      repositories.PostRepository
}

func NewSavedPostHandler(savedPostRepo repositories.SavedPostRepository, postRepo repositories.PostRepository) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository: savedPostRepo,
		postRepository:      postRepo,
	}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.GET("/posts/saved", h.ListSavedPosts)
	g.POST("/posts/:id/save", h.SavePost)
	g.DELETE("/posts/:id/save", h.UnsavePost)
}

// SavePost bookmarks a post for the caller; re-saving is a no-op
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
		return httpError(err)
	}

	if err := h.savedPostRepository.Save(ctx, getUserIDFromContext(c), postID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": true}})
}

// UnsavePost removes the caller's bookmark; it is a no-op when none exists
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.savedPostRepository.Unsave(c.Request().Context(), getUserIDFromContext(c), postID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": false}})
}

// savedPostView pairs a bookmark with its post. Post is nil when the post
// was deleted after being saved.
type savedPostView struct {
	models.SavedPost
	Post *models.Post `json:"post"`
}

// ListSavedPosts returns the caller's bookmarks, cursor-paginated newest first
func (h *SavedPostHandler) ListSavedPosts(c echo.Context) error {
	limit := parseLimit(c, 10, 50)
	before, err := pagination.DecodeBound(c.QueryParam("cursor"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	saved, err := h.savedPostRepository.ListSaved(ctx, getUserIDFromContext(c), before, limit)
	if err != nil {
		return httpError(err)
	}

	postIDs := make([]primitive.ObjectID, 0, len(saved))
	for _, s := range saved {
		postIDs = append(postIDs, s.PostID)
	}
	posts, err := h.postRepository.GetPostsByIDs(ctx, postIDs)
	if err != nil {
		return httpError(err)
	}
	byID := make(map[primitive.ObjectID]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}

	views := make([]savedPostView, 0, len(saved))
	for _, s := range saved {
		views = append(views, savedPostView{SavedPost: s, Post: byID[s.PostID]})
	}

	connection := pagination.Apply(views, limit, func(v savedPostView) string {
		return pagination.Encode(v.ID, v.CreatedAt)
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": connection})
}
