package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/services"
)

// ChatHandler handles conversation and message HTTP requests
type ChatHandler struct {
	chat   *services.ChatService
	logger *zap.Logger
}

func NewChatHandler(chat *services.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// RegisterChatRoutes registers conversation and message routes
func (h *ChatHandler) RegisterChatRoutes(g *echo.Group) {
	g.POST("/conversations", h.CreateConversation)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/search", h.SearchConversations)
	g.GET("/conversations/:id", h.GetConversation)
	g.DELETE("/conversations/:id", h.DeleteConversation)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.GET("/conversations/:id/messages", h.ListMessages)
	g.PUT("/conversations/:id/read", h.MarkRead)
	g.DELETE("/messages/:id", h.DeleteMessage)
}

type createConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required,min=1"`
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	InitialMessage string   `json:"initial_message"`
}

// CreateConversation opens a conversation with the given participants
func (h *ChatHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	participants := make([]primitive.ObjectID, 0, len(req.ParticipantIDs))
	for _, raw := range req.ParticipantIDs {
		id, err := parseID(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid participant id "+raw)
		}
		participants = append(participants, id)
	}

	view, err := h.chat.CreateConversation(c.Request().Context(), services.CreateConversationParams{
		CreatorID:      getUserIDFromContext(c),
		ParticipantIDs: participants,
		Type:           req.Type,
		Name:           req.Name,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"conversation": view}})
}

// ListConversations returns a cursor-paginated conversation list for the caller
func (h *ChatHandler) ListConversations(c echo.Context) error {
	limit := parseLimit(c, 20, 50)
	connection, err := h.chat.ListConversations(c.Request().Context(), getUserIDFromContext(c), c.QueryParam("cursor"), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": connection})
}

// SearchConversations matches conversation names and participant usernames
func (h *ChatHandler) SearchConversations(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Query parameter q is required")
	}

	views, err := h.chat.SearchConversations(c.Request().Context(), getUserIDFromContext(c), query)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"conversations": views}})
}

// GetConversation returns one conversation the caller participates in
func (h *ChatHandler) GetConversation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	view, err := h.chat.GetConversation(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"conversation": view}})
}

// DeleteConversation deactivates a conversation for everyone
func (h *ChatHandler) DeleteConversation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.chat.DeleteConversation(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

type sendMessageRequest struct {
	Content     string `json:"content" validate:"required,max=5000"`
	ContentType string `json:"content_type"`
	MediaURL    string `json:"media_url"`
}

// SendMessage posts a message to a conversation
func (h *ChatHandler) SendMessage(c echo.Context) error {
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	message, err := h.chat.SendMessage(c.Request().Context(), services.SendMessageParams{
		SenderID:       getUserIDFromContext(c),
		ConversationID: conversationID,
		Content:        req.Content,
		ContentType:    req.ContentType,
		MediaURL:       req.MediaURL,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"message": message}})
}

// ListMessages returns a cursor-paginated message history, newest first
func (h *ChatHandler) ListMessages(c echo.Context) error {
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	limit := parseLimit(c, 30, 100)
	connection, err := h.chat.ListMessages(c.Request().Context(), getUserIDFromContext(c), conversationID, c.QueryParam("cursor"), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": connection})
}

// MarkRead marks every message in the conversation as read by the caller
func (h *ChatHandler) MarkRead(c echo.Context) error {
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.chat.MarkConversationRead(c.Request().Context(), getUserIDFromContext(c), conversationID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// DeleteMessage soft-deletes the caller's own message
func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.chat.DeleteMessage(c.Request().Context(), getUserIDFromContext(c), messageID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
