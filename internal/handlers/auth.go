package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/services"
  "github.com/chirpchat/chirp-backend/internal/types"
)

type AuthHandler struct {
  authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

type registerRequest struct {
  Username string `json:"username" binding:"required"`
  Email    string `json:"email" binding:"required"`
  Password string `json:"password" binding:"required"`
  Name     string `json:"name"`
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var req registerRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("username, email and password are required"))
    return
  }
  user := &types.User{
    Username: req.Username,
    Email:    req.Email,
    Password: req.Password,
    Name:     req.Name,
  }
  if err := ah.authService.Register(c.Request.Context(), user); err != nil {
    RespondError(c, err)
    return
  }
  RespondCreated(c, gin.H{"user": user.Projection()})
}

type loginRequest struct {
  Email    string `json:"email" binding:"required"`
  Password string `json:"password" binding:"required"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req loginRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("email and password are required"))
    return
  }
  access, refresh, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"accessToken": access, "refreshToken": refresh})
}

type refreshRequest struct {
  RefreshToken string `json:"refreshToken" binding:"required"`
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
  var req refreshRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, apperr.Validation("refreshToken is required"))
    return
  }
  access, refresh, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
  if err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"accessToken": access, "refreshToken": refresh})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.Logout(c.Request.Context(), requesterID(c)); err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "logged out"})
}
