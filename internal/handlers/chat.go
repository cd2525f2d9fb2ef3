package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/errordata"
	"github.com/racon-ai/racon-backend/internal/requestdata"
	"github.com/racon-ai/racon-backend/internal/response"
	"github.com/racon-ai/racon-backend/internal/services"
	"github.com/racon-ai/racon-backend/internal/types"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type createChatRequest struct {
	Text string `json:"text"`
}

type appendTurnRequest struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
	Img      string `json:"img,omitempty"`
}

type appendTurnResponse struct {
	Acknowledged bool `json:"acknowledged"`
	Appended     int  `json:"appended"`
}

// POST /api/chats
func (ch *ChatHandler) CreateChat(c *gin.Context) {
	ctx := c.Request.Context()
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errordata.Record(ctx, err)
		response.RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body!")
		return
	}
	chatID, err := ch.chatService.CreateChat(ctx, requestdata.UserID(ctx), req.Text)
	if err != nil {
		// A not-found here comes from the index write, which is a server fault.
		if !errors.Is(err, types.ErrInvalidInput) {
			errordata.Record(ctx, err)
			response.RespondError(c, http.StatusInternalServerError, "internal", "Error creating chat!")
			return
		}
		respondServiceError(c, err, "Error creating chat!")
		return
	}
	response.RespondCreated(c, chatID)
}

// GET /api/userchats
func (ch *ChatHandler) ListUserChats(c *gin.Context) {
	ctx := c.Request.Context()
	chats, err := ch.chatService.ListUserChats(ctx, requestdata.UserID(ctx))
	if err != nil {
		respondServiceError(c, err, "Error fetching userchats!")
		return
	}
	response.RespondOK(c, chats)
}

// GET /api/chats/:id
func (ch *ChatHandler) GetChat(c *gin.Context) {
	ctx := c.Request.Context()
	chat, err := ch.chatService.GetChat(ctx, c.Param("id"), requestdata.UserID(ctx))
	if err != nil {
		respondServiceError(c, err, "Error fetching chat!")
		return
	}
	response.RespondOK(c, chat)
}

// PUT /api/chats/:id
func (ch *ChatHandler) AppendTurn(c *gin.Context) {
	ctx := c.Request.Context()
	var req appendTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errordata.Record(ctx, err)
		response.RespondError(c, http.StatusBadRequest, "invalid_request", "Invalid request body!")
		return
	}
	n, err := ch.chatService.AppendTurn(ctx, c.Param("id"), requestdata.UserID(ctx), services.AppendTurnInput{
		Question:   req.Question,
		Answer:     req.Answer,
		Attachment: req.Img,
	})
	if err != nil {
		respondServiceError(c, err, "Error adding conversation!")
		return
	}
	response.RespondOK(c, appendTurnResponse{Acknowledged: true, Appended: n})
}

// respondServiceError keeps the cause server-side. Only not-found and invalid
// input get their own status; the rest collapse into genericMsg.
func respondServiceError(c *gin.Context, err error, genericMsg string) {
	errordata.Record(c.Request.Context(), err)
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		response.RespondError(c, http.StatusBadRequest, "invalid_request", genericMsg)
	case errors.Is(err, types.ErrChatNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", "Chat not found!")
	case errors.Is(err, types.ErrUserChatsNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", "No chats found!")
	default:
		response.RespondError(c, http.StatusInternalServerError, "internal", genericMsg)
	}
}
