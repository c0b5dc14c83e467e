package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"videotube/internal/config"
	"videotube/internal/middleware"
	"videotube/internal/models"
	"videotube/internal/service"
)

// AuthAPI is the session controller; *service.AuthService implements it.
type AuthAPI interface {
	middleware.AccessResolver
	Register(ctx context.Context, input service.RegisterInput) (models.User, error)
	Login(ctx context.Context, input service.LoginInput) (service.AuthResult, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (service.AuthResult, error)
	ChangePassword(ctx context.Context, userID string, input service.ChangePasswordInput) error
	CurrentUser(ctx context.Context, userID string) (models.User, error)
}

type ProfileAPI interface {
	UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID string, file *models.MediaFile) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID string, file *models.MediaFile) (models.User, error)
	ChannelProfile(ctx context.Context, username string) (models.Channel, error)
}

type VideoAPI interface {
	Publish(ctx context.Context, ownerID string, input service.PublishInput) (models.Video, error)
	Get(ctx context.Context, viewerID, videoID string) (models.Video, error)
	ListByOwner(ctx context.Context, viewerID, ownerID string, limit, offset int) ([]models.Video, error)
	WatchHistory(ctx context.Context, userID string, limit, offset int) ([]models.WatchedVideo, error)
}

// PingFunc reports whether a backing service is reachable.
type PingFunc func(ctx context.Context) error

type Dependencies struct {
	Auth     AuthAPI
	Profiles ProfileAPI
	Videos   VideoAPI
	Checks   map[string]PingFunc
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     AuthAPI
	profiles ProfileAPI
	videos   VideoAPI
	checks   map[string]PingFunc
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     deps.Auth,
		profiles: deps.Profiles,
		videos:   deps.Videos,
		checks:   deps.Checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	users := v1.Group("/users")
	users.POST("/register", h.RegisterUser)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.RefreshToken)

	gate := middleware.Auth(h.auth)

	account := v1.Group("/users", gate)
	account.POST("/logout", h.Logout)
	account.POST("/change-password", h.ChangePassword)
	account.GET("/current-user", h.CurrentUser)
	account.PATCH("/update-details", h.UpdateDetails)
	account.PATCH("/avatar", h.UpdateAvatar)
	account.PATCH("/cover-image", h.UpdateCoverImage)
	account.GET("/c/:username", h.ChannelProfile)
	account.GET("/watch-history", h.WatchHistory)

	videos := v1.Group("/videos", gate)
	videos.POST("", h.PublishVideo)
	videos.GET("", h.ListVideos)
	videos.GET("/:videoId", h.GetVideo)
}
