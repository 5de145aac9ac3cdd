package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/services"
)

type MessageHandler struct {
  messageService services.MessageService
}

func NewMessageHandler(messageService services.MessageService) *MessageHandler {
  return &MessageHandler{messageService: messageService}
}

type sendMessageRequest struct {
  ChatID  string `json:"chatId" binding:"required"`
  Content string `json:"content" binding:"required"`
}

func (mh *MessageHandler) Send(c *gin.Context) {
  var req sendMessageRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("chatId and content are required"))
    return
  }
  msg, err := mh.messageService.Send(c.Request.Context(), req.ChatID, req.Content, requesterID(c))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, msg)
}

func (mh *MessageHandler) Get(c *gin.Context) {
  msg, err := mh.messageService.Get(c.Request.Context(), c.Param("messageId"), requesterID(c))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, msg)
}

func (mh *MessageHandler) List(c *gin.Context) {
  messages, err := mh.messageService.ListByChat(c.Request.Context(), c.Param("chatId"), requesterID(c))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, messages)
}

type editMessageRequest struct {
  Content string `json:"content" binding:"required"`
}

func (mh *MessageHandler) Edit(c *gin.Context) {
  var req editMessageRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("content is required"))
    return
  }
  msg, err := mh.messageService.Edit(c.Request.Context(), c.Param("messageId"), req.Content, requesterID(c))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, msg)
}

func (mh *MessageHandler) Delete(c *gin.Context) {
  if err := mh.messageService.Delete(c.Request.Context(), c.Param("messageId"), requesterID(c)); err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, gin.H{"message": "Message deleted successfully."})
}
