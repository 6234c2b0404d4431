package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDeletionPreview reports what an account deletion would remove without
// touching any data.
func (s *Server) GetDeletionPreview(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	preview, err := s.accountSvc.DeletionPreview(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

type deleteAccountRequest struct {
	Reason   string `json:"reason"`
	Feedback string `json:"feedback"`
}

// DeleteAccount permanently removes the user and everything they own.
func (s *Server) DeleteAccount(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req deleteAccountRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	result := s.accountSvc.DeleteAccount(c.Request.Context(), userID, req.Reason, req.Feedback)
	if !result.Success {
		if result.Message == "Account not found" {
			c.JSON(http.StatusNotFound, result)
			return
		}
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
