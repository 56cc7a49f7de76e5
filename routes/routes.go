package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatbot/controllers"
	"chatbot/middlewares"
)

func SetupRouter(chat *controllers.ChatController, logger *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.Logger(logger), middlewares.CORS())

	r.GET("/health", controllers.HandleHealth)
	r.GET("/knowledge", chat.HandleKnowledge)

	// send a message
	r.POST("/chat", chat.HandleChat)

	// recorded exchanges, newest first
	r.GET("/chat/exchanges", chat.GetExchanges)

	return r
}
