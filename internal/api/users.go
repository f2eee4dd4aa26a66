package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/techretail/retailbot/internal/database"
	"github.com/techretail/retailbot/internal/domain"
)

func (s *Server) listUsers(c *gin.Context) {
	telegramID, err := queryInt64(c, "telegram_id")
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if telegramID == 0 {
		s.badRequest(c, "telegram_id is required")
		return
	}

	users := []domain.User{}
	user, err := s.store.GetUserByTelegramID(c.Request.Context(), telegramID)
	switch {
	case err == nil:
		users = append(users, *user)
	case errors.Is(err, domain.ErrNotFound):
	default:
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Page[domain.User]{Count: len(users), Results: users})
}

// upsertUser creates the user on first contact (201) or refreshes its profile (200).
func (s *Server) upsertUser(c *gin.Context) {
	var identity domain.Identity
	if err := c.ShouldBindJSON(&identity); err != nil {
		s.badRequest(c, "telegram_id is required")
		return
	}

	user, created, err := s.store.UpsertUser(c.Request.Context(), identity)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// UpdateUserRequest is the body of PATCH /api/users/{id}/.
type UpdateUserRequest struct {
	Preferences *string `json:"preferences"`
}

func (s *Server) updateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Preferences == nil {
		s.badRequest(c, "preferences is required")
		return
	}

	user, err := s.store.UpdatePreferences(c.Request.Context(), id, strings.TrimSpace(*req.Preferences))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) listConversations(c *gin.Context) {
	page, err := s.page(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	filter := database.ConversationFilter{Page: page, NewestFirst: wantsNewestFirst(c.Query("ordering"))}
	if filter.UserID, err = queryInt64(c, "user"); err != nil {
		s.abortWithError(c, err)
		return
	}
	if filter.TelegramID, err = queryInt64(c, "user__telegram_id"); err != nil {
		s.abortWithError(c, err)
		return
	}
	if filter.OpenOnly, err = queryBool(c, "open"); err != nil {
		s.abortWithError(c, err)
		return
	}

	convs, total, err := s.store.ListConversations(c.Request.Context(), filter)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Page[domain.Conversation]{Count: total, Results: convs})
}

// OpenConversationRequest is the body of POST /api/conversations/.
type OpenConversationRequest struct {
	User int64 `json:"user" binding:"required,gt=0"`
}

// openConversation returns the user's open conversation, creating it (201) if needed.
func (s *Server) openConversation(c *gin.Context) {
	var req OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "user is required")
		return
	}

	conv, created, err := s.store.OpenConversation(c.Request.Context(), req.User)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, conv)
}

func (s *Server) getConversation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	conv, err := s.store.GetConversation(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) closeConversation(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	conv, err := s.store.CloseConversation(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) listMessages(c *gin.Context) {
	page, err := s.page(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	filter := database.MessageFilter{Page: page, NewestFirst: wantsNewestFirst(c.Query("ordering"))}
	if filter.ConversationID, err = queryInt64(c, "conversation"); err != nil {
		s.abortWithError(c, err)
		return
	}

	messages, total, err := s.store.ListMessages(c.Request.Context(), filter)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, domain.Page[domain.Message]{Count: total, Results: messages})
}

// CreateMessageRequest is the body of POST /api/messages/.
type CreateMessageRequest struct {
	Conversation int64  `json:"conversation" binding:"required,gt=0"`
	Sender       string `json:"sender"       binding:"required,oneof=user bot"`
	Content      string `json:"content"      binding:"required"`
}

func (s *Server) createMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "conversation, sender (user|bot) and content are required")
		return
	}

	message := domain.Message{ConversationID: req.Conversation, Sender: req.Sender, Content: req.Content}
	if err := s.store.AppendMessage(c.Request.Context(), &message); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}
