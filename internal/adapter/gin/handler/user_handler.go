package handler

import (
	"errors"
	"io"
	"net/http"

	"user-registry/internal/usecase/user"
	apperrors "user-registry/pkg/errors"
	"user-registry/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Email string `json:"email"`
}

// MutationResponse is returned by create and update.
type MutationResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// MessageResponse is returned by delete.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response. Details carries the storage
// error message on 500 responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toResponse(u user.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Age:   u.Age,
		Email: u.Email,
	}
}

// ListUsers handles GET /usuarios
func (h *UserHandler) ListUsers(c *gin.Context) {
	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := make([]UserResponse, len(resp.Users))
	for i, u := range resp.Users {
		users[i] = toResponse(u)
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /usuarios/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: c.Param("id")})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(resp.User))
}

// CreateUser handles POST /usuarios
func (h *UserHandler) CreateUser(c *gin.Context) {
	body, ok := h.bindBody(c)
	if !ok {
		return
	}

	resp, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		Name:  body.NameField(),
		Age:   body.AgeField(),
		Email: body.EmailField(),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MutationResponse{
		Message: "user created successfully",
		User:    toResponse(resp.User),
	})
}

// UpdateUser handles PUT /usuarios/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	body, ok := h.bindBody(c)
	if !ok {
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:    c.Param("id"),
		Name:  body.NameField(),
		Age:   body.AgeField(),
		Email: body.EmailField(),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MutationResponse{
		Message: "user updated successfully",
		User:    toResponse(resp.User),
	})
}

// DeleteUser handles DELETE /usuarios/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: c.Param("id")}); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted successfully"})
}

// bindBody decodes the JSON object body. An empty body reads as {}.
func (h *UserHandler) bindBody(c *gin.Context) (UserBody, bool) {
	var body UserBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		logger.WithContext(c.Request.Context(), h.log).Warn("malformed request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid user data, request body must be a JSON object",
		})
		return UserBody{}, false
	}
	return body, true
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	if status < http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	logger.WithContext(c.Request.Context(), h.log).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)

	var perr *apperrors.PersistenceError
	if errors.As(err, &perr) {
		c.JSON(status, ErrorResponse{Error: perr.Message, Details: perr.Detail()})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal server error",
		Details: err.Error(),
	})
}
