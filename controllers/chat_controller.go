package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatbot/models"
	"chatbot/services"
)

const serviceName = "SITCOE College Chatbot"

type ChatController struct {
	chat   *services.ChatService
	logger *zap.SugaredLogger
}

func NewChatController(chat *services.ChatService, logger *zap.SugaredLogger) *ChatController {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ChatController{chat: chat, logger: logger}
}

func (cc *ChatController) HandleChat(c *gin.Context) {
	var request struct {
		Message *string `json:"message"`
	}

	if err := c.ShouldBindJSON(&request); err != nil || request.Message == nil {
		cc.logger.Debugw("rejecting chat request", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Message is required"})
		return
	}

	exchange, err := cc.chat.Reply(c.Request.Context(), *request.Message)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Message is required"})
			return
		}
		cc.logger.Errorw("chat completion failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "An error occurred while processing your request",
			Details: err.Error(),
		})
		return
	}

	reply := exchange.Reply
	c.JSON(http.StatusOK, models.ChatResponse{
		Reply:       &reply,
		Timestamp:   exchange.Timestamp.Format(time.RFC3339),
		UserMessage: exchange.UserMessage,
		ID:          exchange.ID,
	})
}

func (cc *ChatController) GetExchanges(c *gin.Context) {
	limit := services.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	exchanges, err := cc.chat.Recent(c.Request.Context(), limit)
	if err != nil {
		cc.logger.Errorw("failed to fetch exchanges", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch exchanges"})
		return
	}
	if exchanges == nil {
		exchanges = []models.Exchange{}
	}

	c.JSON(http.StatusOK, models.ExchangesResponse{Exchanges: exchanges})
}

func (cc *ChatController) HandleKnowledge(c *gin.Context) {
	c.JSON(http.StatusOK, models.KnowledgeResponse{
		KnowledgeBase: cc.chat.Knowledge(),
		LastUpdated:   services.GetCurrentTimestamp(),
	})
}

func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: services.GetCurrentTimestamp(),
	})
}
