package router

import (
	"github.com/gin-gonic/gin"

	"basegraph.app/leads/internal/http/handler"
)

func LeadRouter(router *gin.RouterGroup, leads *handler.LeadHandler, messages *handler.MessageHandler, streams *handler.StreamHandler) {
	router.GET("", leads.List)
	router.POST("", leads.Create)
	router.PATCH("", leads.MissingID)
	router.GET("/stream", streams.Leads)

	router.GET("/:id", leads.Get)
	router.PATCH("/:id", leads.Update)
	router.GET("/:id/stream", streams.Lead)
	router.GET("/:id/messages", messages.List)
	router.POST("/:id/messages", messages.Append)
}
