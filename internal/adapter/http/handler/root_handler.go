package handler

import (
	"net/http"

	. "simpletodo/internal/adapter/http/helper"

	"github.com/gin-gonic/gin"
)

const MessageWelcome = "Welcome. This is not your first time here :)"

func Root(c *gin.Context) {
	SendMessage(c, http.StatusOK, MessageWelcome)
}
