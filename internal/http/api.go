package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-api/internal/domain"
	"user-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tokens service.TokenIssuer
	logger *logrus.Logger
}

func NewHandler(users service.UserService, tokens service.TokenIssuer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Handler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		user := api.Group("/user")
		user.POST("/create/", h.createUser)
		user.POST("/token/", h.createToken)
		user.GET("/me/", h.requireToken(), h.me)
	}
}

// UserResponse is the public representation of a user. It never carries
// the password.
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req service.NewUser
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithField("user_id", user.ID).Info("user created")
	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) createToken(c *gin.Context) {
	var req service.Credentials
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		var authErr *service.AuthenticationError
		if errors.As(err, &authErr) {
			h.logger.WithField("client_ip", c.ClientIP()).Warn("authentication failed")
		}
		h.writeError(c, err)
		return
	}

	token, err := h.tokens.IssueToken(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithField("user_id", user.ID).Info("token issued")
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (h *Handler) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": msgNoCredentials})
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

// bindJSON decodes the body into dst. An empty body decodes to the zero
// value so that field validation reports the missing fields.
func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
		return false
	}
	return true
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		Email: user.Email,
		Name:  user.Name,
	}
}
