package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/services"
)

type ChatHandler struct {
  chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
  return &ChatHandler{chatService: chatService}
}

type accessChatRequest struct {
  Username string `json:"username" binding:"required"`
}

// Access returns the direct chat with the named user, creating it on first
// contact. 201 on creation, 200 when it already existed.
func (ch *ChatHandler) Access(c *gin.Context) {
  var req accessChatRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("username is required"))
    return
  }
  chat, created, err := ch.chatService.Access(c.Request.Context(), requesterID(c), req.Username)
  if err != nil {
    RespondError(c, err)
    return
  }
  if created {
    RespondCreated(c, chat)
    return
  }
  RespondOK(c, chat)
}

func (ch *ChatHandler) Get(c *gin.Context) {
  chat, err := ch.chatService.Get(c.Request.Context(), requesterID(c), c.Param("chatId"))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, chat)
}

func (ch *ChatHandler) Fetch(c *gin.Context) {
  chats, err := ch.chatService.Fetch(c.Request.Context(), requesterID(c))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, chats)
}

type createGroupRequest struct {
  Name      string   `json:"name" binding:"required"`
  Usernames []string `json:"usernames" binding:"required"`
}

func (ch *ChatHandler) CreateGroup(c *gin.Context) {
  var req createGroupRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("participants or name of group is missing"))
    return
  }
  chat, err := ch.chatService.CreateGroup(c.Request.Context(), requesterID(c), req.Name, req.Usernames)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, chat)
}

type updateGroupRequest struct {
  ChatID         string   `json:"chatId" binding:"required"`
  NewChatName    string   `json:"newChatName"`
  UsernamesToAdd []string `json:"usernamesToAdd"`
}

func (ch *ChatHandler) UpdateGroup(c *gin.Context) {
  var req updateGroupRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("chatId is required"))
    return
  }
  chat, err := ch.chatService.UpdateGroup(c.Request.Context(), requesterID(c), req.ChatID, req.NewChatName, req.UsernamesToAdd)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, chat)
}

func (ch *ChatHandler) RemoveFromGroup(c *gin.Context) {
  userID, err := parseUserID(c.Param("userId"))
  if err != nil {
    RespondError(c, err)
    return
  }
  chat, err := ch.chatService.RemoveFromGroup(c.Request.Context(), requesterID(c), c.Param("chatId"), userID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "user removed successfully", "chat": chat})
}

func (ch *ChatHandler) Leave(c *gin.Context) {
  chat, err := ch.chatService.Leave(c.Request.Context(), requesterID(c), c.Param("chatId"))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "left the chat successfully", "chat": chat})
}
