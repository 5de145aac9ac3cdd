package handlers

import (
  "strconv"

  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/services"
)

type FriendHandler struct {
  friendService services.FriendService
}

func NewFriendHandler(friendService services.FriendService) *FriendHandler {
  return &FriendHandler{friendService: friendService}
}

func (fh *FriendHandler) Block(c *gin.Context) {
  targetID, err := parseUserID(c.Param("userId"))
  if err != nil {
    RespondError(c, err)
    return
  }
  if err := fh.friendService.Block(c.Request.Context(), requesterID(c), targetID); err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "user blocked"})
}

func (fh *FriendHandler) Unblock(c *gin.Context) {
  targetID, err := parseUserID(c.Param("userId"))
  if err != nil {
    RespondError(c, err)
    return
  }
  if err := fh.friendService.Unblock(c.Request.Context(), requesterID(c), targetID); err != nil {
    RespondError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "user unblocked"})
}

func parseUserID(raw string) (uint, error) {
  id, err := strconv.ParseUint(raw, 10, 64)
  if err != nil || id == 0 {
    return 0, apperr.Validation("invalid user id %q", raw)
  }
  return uint(id), nil
}
