package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"videotube/internal/apperr"
	"videotube/internal/middleware"
	"videotube/internal/service"
)

type publishRequest struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Duration    string `form:"duration"`
}

func (h HandlerSet) PublishVideo(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	var req publishRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.AbortWithError(c, middleware.RequestError(err))
		return
	}

	var duration float64
	if d := strings.TrimSpace(req.Duration); d != "" {
		parsed, err := strconv.ParseFloat(d, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			middleware.AbortWithError(c, apperr.Validation("duration must be a number of seconds"))
			return
		}
		duration = parsed
	}

	files, err := h.stageUploads(c, "videoFile", "thumbnail")
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	video, err := h.videos.Publish(c.Request.Context(), user.ID, service.PublishInput{
		Title:           req.Title,
		Description:     req.Description,
		DurationSeconds: duration,
		VideoFile:       files[0],
		Thumbnail:       files[1],
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusCreated, "Video published successfully", toVideoResponse(video))
}

func (h HandlerSet) GetVideo(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	video, err := h.videos.Get(c.Request.Context(), user.ID, c.Param("videoId"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.Respond(c, http.StatusOK, "Video fetched successfully", toVideoResponse(video))
}

// ListVideos lists an owner's videos; without ?owner it lists the caller's.
func (h HandlerSet) ListVideos(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	owner := c.DefaultQuery("owner", user.ID)
	page, perPage := pageParams(c)

	videos, err := h.videos.ListByOwner(c.Request.Context(), user.ID, owner, perPage, (page-1)*perPage)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	resp := videoListResponse{
		Videos:  make([]videoResponse, 0, len(videos)),
		Page:    page,
		PerPage: perPage,
	}
	for _, v := range videos {
		resp.Videos = append(resp.Videos, toVideoResponse(v))
	}

	middleware.Respond(c, http.StatusOK, "Videos fetched successfully", resp)
}

func (h HandlerSet) WatchHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.AbortWithError(c, apperr.Auth("unauthorized request"))
		return
	}

	page, perPage := pageParams(c)
	history, err := h.videos.WatchHistory(c.Request.Context(), user.ID, perPage, (page-1)*perPage)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	resp := watchHistoryResponse{
		Videos:  make([]watchedVideoResponse, 0, len(history)),
		Page:    page,
		PerPage: perPage,
	}
	for _, entry := range history {
		resp.Videos = append(resp.Videos, watchedVideoResponse{
			videoResponse: toVideoResponse(entry.Video),
			WatchedAt:     entry.WatchedAt,
		})
	}

	middleware.Respond(c, http.StatusOK, "Watch history fetched successfully", resp)
}

// pageParams reads ?page and ?perPage, both 1-based and capped.
func pageParams(c *gin.Context) (int, int) {
	page := parsePositiveInt(c.Query("page"), 1)
	perPage := parsePositiveInt(c.Query("perPage"), service.DefaultPageSize)
	if perPage > service.MaxPageSize {
		perPage = service.MaxPageSize
	}
	return page, perPage
}

func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
