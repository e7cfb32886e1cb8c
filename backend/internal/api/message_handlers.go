package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"instaclone/backend/internal/monitoring"
)

type sendMessageRequest struct {
	TextMessage string `json:"textMessage" form:"textMessage"`
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if !bindBody(c, &req) {
		return
	}

	message, err := s.messaging.SendMessage(c.Request.Context(), currentUser(c), c.Param("id"), req.TextMessage)
	if err != nil {
		s.fail(c, err, nil)
		return
	}

	monitoring.MessagesSent.Inc()
	respond(c, http.StatusCreated, "", gin.H{"newMessage": message})
}

func (s *Server) getMessages(c *gin.Context) {
	messages, err := s.messaging.GetMessages(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.fail(c, err, nil)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"messages": messages})
}
