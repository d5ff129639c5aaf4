package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/pagination"
	"github.com/hoangpn/socialite/backend/internal/repositories"
	"github.com/hoangpn/socialite/backend/internal/services"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	notifications     *services.NotificationService
	logger            *zap.Logger
}

func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	notifications *services.NotificationService,
	logger *zap.Logger,
) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		notifications:     notifications,
		logger:            logger,
	}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.ListComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

type createCommentRequest struct {
	Content  string `json:"content" validate:"required,max=2000"`
	ParentID string `json:"parent_id"`
}

// CreateComment adds a comment or a reply and notifies the relevant author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req createCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return httpError(err)
	}

	userID := getUserIDFromContext(c)
	comment := &models.Comment{
		PostID:   postID,
		AuthorID: userID,
		Content:  req.Content,
	}

	var parent *models.Comment
	if req.ParentID != "" {
		parentID, err := parseID(req.ParentID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid parent_id")
		}
		parent, err = h.commentRepository.GetCommentByID(ctx, parentID)
		if err != nil {
			return httpError(err)
		}
		if parent.PostID != postID {
			return echo.NewHTTPError(http.StatusBadRequest, "Parent comment belongs to another post")
		}
		comment.ParentID = &parent.ID
	}

	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return httpError(err)
	}

	if parent != nil {
		if _, err := h.notifications.NotifyReplyComment(ctx, parent.ID, parent.AuthorID, userID, req.Content, postID); err != nil {
			h.logger.Warn("notify reply", zap.Error(err))
		}
	} else {
		if _, err := h.notifications.NotifyCommentPost(ctx, postID, post.AuthorID, userID, req.Content); err != nil {
			h.logger.Warn("notify comment", zap.Error(err))
		}
	}

	if err := h.notifications.NotifyMentions(ctx, userID, comment.ID, models.EntityComment, req.Content); err != nil {
		h.logger.Warn("notify mentions on comment", zap.Error(err))
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"comment": comment}})
}

// ListComments returns a cursor-paginated comment listing for a post
func (h *CommentHandler) ListComments(c echo.Context) error {
	postID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	limit := parseLimit(c, 20, 50)
	before, err := pagination.DecodeBound(c.QueryParam("cursor"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comments, err := h.commentRepository.ListCommentsByPost(c.Request().Context(), postID, before, limit)
	if err != nil {
		return httpError(err)
	}

	connection := pagination.Apply(comments, limit, func(cm models.Comment) string {
		return pagination.Encode(cm.ID, cm.CreatedAt)
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": connection})
}

// DeleteComment removes the caller's own comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if comment.AuthorID != getUserIDFromContext(c) {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own comments")
	}

	if err := h.commentRepository.DeleteComment(ctx, id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
