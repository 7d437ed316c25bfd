package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/weiawesome/wes-io-live/profile-service/internal/domain"
	"github.com/weiawesome/wes-io-live/profile-service/internal/service"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/log"
	"github.com/weiawesome/wes-io-live/profile-service/pkg/response"
)

// Handler handles HTTP requests for profile service.
type Handler struct {
	userService   service.UserService
	avatarService service.AvatarService
	logger        zerolog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(userService service.UserService, avatarService service.AvatarService, logger zerolog.Logger) *Handler {
	return &Handler{
		userService:   userService,
		avatarService: avatarService,
		logger:        logger,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/users", h.CreateUser)

		user := api.Group("/user/:userId")
		{
			user.GET("", h.GetUser)
			user.GET("/avatar", h.GetAvatar)
			user.DELETE("/avatar", h.DeleteAvatar)
		}
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateUser handles user registration.
func (h *Handler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.CtxOr(ctx, h.logger)

	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create user request")
		response.BadRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		h.writeError(c, err, "failed to create user")
		return
	}

	response.Created(c, user)
}

// GetUser returns the remote profile of a user.
func (h *Handler) GetUser(c *gin.Context) {
	p, err := h.userService.GetUserByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err, "failed to get user")
		return
	}

	response.Success(c, p)
}

// GetAvatar returns the base64 encoded avatar of a user.
func (h *Handler) GetAvatar(c *gin.Context) {
	avatar, err := h.avatarService.GetAvatar(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err, "failed to get avatar")
		return
	}

	response.Success(c, domain.AvatarResponse{Avatar: avatar})
}

// DeleteAvatar removes the cached avatar of a user.
func (h *Handler) DeleteAvatar(c *gin.Context) {
	if err := h.avatarService.DeleteAvatar(c.Request.Context(), c.Param("userId")); err != nil {
		h.writeError(c, err, "failed to delete avatar")
		return
	}

	response.NoContent(c)
}

// writeError maps service errors to responses. Causes of server-side
// failures are logged, never returned to the client.
func (h *Handler) writeError(c *gin.Context, err error, message string) {
	var (
		vErr *domain.ValidationError
		pErr *domain.AvatarProcessingError
		dErr *domain.AvatarDeletionError
		rErr *domain.RemoteFetchError
	)

	switch {
	case errors.As(err, &vErr):
		response.ValidationFailed(c, vErr.Field, vErr.Error())
		return
	case errors.Is(err, domain.ErrDuplicateUser):
		response.Conflict(c, domain.ErrDuplicateUser.Error())
		return
	}

	l := log.CtxOr(c.Request.Context(), h.logger)
	l.Error().Err(err).Msg(message)

	switch {
	case errors.As(err, &pErr), errors.As(err, &dErr):
		response.InternalError(c, message)
	case errors.As(err, &rErr):
		response.BadGateway(c, message)
	default:
		response.InternalError(c, message)
	}
}
