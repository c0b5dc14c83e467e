package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"videotube/internal/apperr"
	"videotube/internal/middleware"
)

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h HandlerSet) UpdateDetails(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	var req updateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, middleware.RequestError(err))
		return
	}

	updated, err := h.profiles.UpdateDetails(c.Request.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusOK, "Account details updated successfully", toUserResponse(updated))
}

func (h HandlerSet) UpdateAvatar(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	file, err := h.stageUpload(c, "avatar")
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	updated, err := h.profiles.UpdateAvatar(c.Request.Context(), user.ID, file)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusOK, "Avatar updated successfully", toUserResponse(updated))
}

func (h HandlerSet) UpdateCoverImage(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	file, err := h.stageUpload(c, "coverImage")
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	updated, err := h.profiles.UpdateCoverImage(c.Request.Context(), user.ID, file)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusOK, "Cover image updated successfully", toUserResponse(updated))
}

func (h HandlerSet) ChannelProfile(c *gin.Context) {
	channel, err := h.profiles.ChannelProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusOK, "Channel fetched successfully", toChannelResponse(channel))
}
