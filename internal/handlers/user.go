package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/services"
)

type UserHandler struct {
  userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
  return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
  me, err := uh.userService.GetMe(c.Request.Context())
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"me": me})
}

func (uh *UserHandler) GetByID(c *gin.Context) {
  userID, err := parseUserID(c.Param("userId"))
  if err != nil {
    RespondError(c, err)
    return
  }
  projection, err := uh.userService.GetProjection(c.Request.Context(), userID)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"user": projection})
}

func (uh *UserHandler) Search(c *gin.Context) {
  users, err := uh.userService.Search(c.Request.Context(), c.Query("search"))
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"users": users})
}
