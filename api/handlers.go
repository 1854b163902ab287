// Package api exposes the chat system over HTTP. It maps requests onto the
// service layer and error kinds onto status codes; no domain logic lives
// here.
package api

import (
	goerrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"rofl/auth"
	"rofl/domain"
	"rofl/errors"
	"rofl/services"
)

type Handlers struct {
	users      services.IUserService
	membership services.IMembershipService
	feed       services.IFeedService
	log        *slog.Logger
}

func NewHandlers(
	users services.IUserService,
	membership services.IMembershipService,
	feed services.IFeedService,
	log *slog.Logger,
) *Handlers {
	return &Handlers{users: users, membership: membership, feed: feed, log: log}
}

type messageResponse struct {
	ID       string    `json:"id"`
	ChatID   string    `json:"chat_id"`
	SenderID string    `json:"sender_id"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}

type chatResponse struct {
	ID            string            `json:"id"`
	CreatorID     string            `json:"creator_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Picture       string            `json:"picture,omitempty"`
	Members       []string          `json:"members"`
	Messages      []messageResponse `json:"messages,omitempty"`
	LastMessageAt time.Time         `json:"last_message_at"`
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:       m.ID,
		ChatID:   m.ChatID,
		SenderID: m.SenderID,
		Content:  m.Content,
		SentAt:   m.SentAt,
	}
}

func toChatResponse(c domain.Chat) chatResponse {
	return chatResponse{
		ID:            c.ID,
		CreatorID:     c.CreatorID,
		Name:          c.Name,
		Description:   c.Description,
		Picture:       c.Picture,
		Members:       c.Members,
		LastMessageAt: c.LastMessageAt,
		Messages: lo.Map(c.Messages, func(m domain.Message, _ int) messageResponse {
			return toMessageResponse(m)
		}),
	}
}

func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, token, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"token":        token,
	})
}

func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handlers) CreateChat(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		ImageURL    string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chat, err := h.membership.CreateChat(c.Request.Context(), c.GetString("userId"),
		req.Name, req.Description, req.ImageURL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toChatResponse(chat))
}

func (h *Handlers) History(c *gin.Context) {
	chat, err := h.membership.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toChatResponse(chat))
}

func (h *Handlers) Join(c *gin.Context) {
	if err := h.membership.Join(c.Request.Context(), c.GetString("userId"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

func (h *Handlers) Leave(c *gin.Context) {
	if err := h.membership.Leave(c.Request.Context(), c.GetString("userId"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

func (h *Handlers) Post(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.membership.Post(c.Request.Context(), c.GetString("userId"), c.Param("id"), req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func (h *Handlers) Feed(c *gin.Context) {
	entries, err := h.feed.FeedFor(c.Request.Context(), c.GetString("userId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	type feedEntry struct {
		ChatID  string          `json:"chat_id"`
		Message messageResponse `json:"message"`
	}
	c.JSON(http.StatusOK, lo.Map(entries, func(e services.FeedEntry, _ int) feedEntry {
		return feedEntry{ChatID: e.ChatID, Message: toMessageResponse(e.Message)}
	}))
}

// fail translates the error taxonomy into HTTP statuses.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case goerrors.Is(err, errors.ErrValidation), goerrors.Is(err, errors.ErrInvalidPassword):
		status = http.StatusBadRequest
	case goerrors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case goerrors.Is(err, errors.ErrAlreadyMember), goerrors.Is(err, errors.ErrNotMember),
		goerrors.Is(err, errors.ErrUserAlreadyExists):
		status = http.StatusConflict
	case goerrors.Is(err, errors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
