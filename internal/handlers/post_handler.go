package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/cache"
	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/pagination"
	"github.com/hoangpn/socialite/backend/internal/repositories"
	"github.com/hoangpn/socialite/backend/internal/services"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postRepository repositories.PostRepository
	notifications  *services.NotificationService
	viewCounter    *cache.ViewCounter
	logger         *zap.Logger
}

func NewPostHandler(
	postRepo repositories.PostRepository,
	notifications *services.NotificationService,
	viewCounter *cache.ViewCounter,
	logger *zap.Logger,
) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		notifications:  notifications,
		viewCounter:    viewCounter,
		logger:         logger,
	}
}

// RegisterPostRoutes registers post routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.ListPosts)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
	g.POST("/posts/:id/view", h.RecordView)
}

type createPostRequest struct {
	Caption   string   `json:"caption"`
	Tags      []string `json:"tags"`
	Location  string   `json:"location"`
	MediaURLs []string `json:"media_urls" validate:"required,min=1,dive,url"`
}

// CreatePost creates a post and notifies mentioned users
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userID := getUserIDFromContext(c)
	post := &models.Post{
		AuthorID:  userID,
		Caption:   req.Caption,
		Tags:      req.Tags,
		Location:  req.Location,
		MediaURLs: req.MediaURLs,
	}

	ctx := c.Request().Context()
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return httpError(err)
	}

	if err := h.notifications.NotifyMentions(ctx, userID, post.ID, models.EntityPost, req.Caption); err != nil {
		h.logger.Warn("notify mentions on post", zap.Error(err))
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"post": post}})
}

// ListPosts returns a cursor-paginated post feed, optionally by author
func (h *PostHandler) ListPosts(c echo.Context) error {
	limit := parseLimit(c, 10, 50)
	before, err := pagination.DecodeBound(c.QueryParam("cursor"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var author *primitive.ObjectID
	if raw := c.QueryParam("author"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid author")
		}
		author = &id
	}

	posts, err := h.postRepository.ListPosts(c.Request().Context(), author, before, limit)
	if err != nil {
		return httpError(err)
	}

	connection := pagination.Apply(posts, limit, func(p models.Post) string {
		return pagination.Encode(p.ID, p.CreatedAt)
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": connection})
}

// GetPost returns one post
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"post": post}})
}

type updatePostRequest struct {
	Caption  *string  `json:"caption"`
	Tags     []string `json:"tags"`
	Location *string  `json:"location"`
}

// UpdatePost updates the caller's own post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if post.AuthorID != getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own posts")
	}

	update := bson.M{}
	if req.Caption != nil {
		update["caption"] = *req.Caption
	}
	if req.Tags != nil {
		update["tags"] = req.Tags
	}
	if req.Location != nil {
		update["location"] = *req.Location
	}
	if len(update) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Nothing to update")
	}

	if err := h.postRepository.UpdatePost(ctx, id, update); err != nil {
		return httpError(err)
	}

	post, err = h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"post": post}})
}

// DeletePost removes the caller's own post
func (h *PostHandler) DeletePost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if post.AuthorID != getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own posts")
	}

	if err := h.postRepository.DeletePost(ctx, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// LikePost records a like and notifies the post author
func (h *PostHandler) LikePost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return httpError(err)
	}

	userID := getUserIDFromContext(c)
	if err := h.postRepository.AddLike(ctx, id, userID); err != nil {
		return httpError(err)
	}

	if _, err := h.notifications.NotifyLikePost(ctx, id, post.AuthorID, userID); err != nil {
		h.logger.Warn("notify like", zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UnlikePost removes a like
func (h *PostHandler) UnlikePost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.postRepository.RemoveLike(c.Request().Context(), id, getUserIDFromContext(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// RecordView bumps the post's cached view counter
func (h *PostHandler) RecordView(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.postRepository.GetPostByID(ctx, id); err != nil {
		return httpError(err)
	}

	if err := h.viewCounter.RecordView(ctx, id); err != nil {
		return httpError(err)
	}

	count, err := h.viewCounter.ViewCount(ctx, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"view_count": count}})
}
