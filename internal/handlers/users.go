package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"videotube/internal/apperr"
	"videotube/internal/middleware"
	"videotube/internal/service"
)

type registerRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	FullName string `form:"fullName" json:"fullName"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.AbortWithError(c, middleware.RequestError(err))
		return
	}

	files, err := h.stageUploads(c, "avatar", "coverImage")
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Avatar:     files[0],
		CoverImage: files[1],
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusCreated, "User registered successfully", toUserResponse(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, middleware.RequestError(err))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.setSessionCookies(c, result)
	middleware.Respond(c, http.StatusOK, "User logged in successfully", toAuthResponse(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshTokenCookie)
	if strings.TrimSpace(token) == "" && c.Request.ContentLength != 0 {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortWithError(c, middleware.RequestError(err))
			return
		}
		token = req.RefreshToken
	}

	result, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.setSessionCookies(c, result)
	middleware.Respond(c, http.StatusOK, "Access token refreshed", toAuthResponse(result))
}

func (h HandlerSet) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	h.clearSessionCookies(c)
	middleware.Respond(c, http.StatusOK, "User logged out", gin.H{})
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, middleware.RequestError(err))
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), user.ID, service.ChangePasswordInput{
		CurrentPassword: req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusOK, "Password changed successfully", gin.H{})
}

func (h HandlerSet) CurrentUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	fresh, err := h.auth.CurrentUser(c.Request.Context(), user.ID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusOK, "User fetched successfully", toUserResponse(fresh))
}

func (h HandlerSet) setSessionCookies(c *gin.Context, result service.AuthResult) {
	sec := h.cfg.Security
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, result.AccessToken, int(sec.JWTAccessTTL.Seconds()), "/", sec.CookieDomain, sec.CookieSecure, true)
	c.SetCookie(middleware.RefreshTokenCookie, result.RefreshToken, int(sec.JWTRefreshTTL.Seconds()), "/", sec.CookieDomain, sec.CookieSecure, true)
}

func (h HandlerSet) clearSessionCookies(c *gin.Context) {
	sec := h.cfg.Security
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", sec.CookieDomain, sec.CookieSecure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", sec.CookieDomain, sec.CookieSecure, true)
}
