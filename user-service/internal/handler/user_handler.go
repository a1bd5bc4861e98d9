package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(context.Context, cqrs.CreateUserCommand) (*models.UserView, error)
	UpdateProfile(context.Context, cqrs.UpdateProfileCommand) (*models.UserView, error)
	UpdatePassword(context.Context, cqrs.UpdatePasswordCommand) error
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
	VerifyPassword(context.Context, cqrs.VerifyPasswordQuery) error
	ListUsers(context.Context, cqrs.ListUsersQuery) (*listing.Page[models.UserView], error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

// UpdateProfileRequest is a patch: absent and null keys are left unchanged.
type UpdateProfileRequest struct {
	Email     models.Optional[string] `json:"email"`
	FirstName models.Optional[string] `json:"firstName"`
	LastName  models.Optional[string] `json:"lastName"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// ListUsersRequest is the admin listing query string.
type ListUsersRequest struct {
	listing.Params
	Email       string `form:"email" validate:"omitempty,email"`
	SearchQuery string `form:"searchQuery" validate:"max=100"`
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to get profile")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := validateProfilePatch(req); len(validationErrors) > 0 {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.UpdateProfile(c.Request.Context(), cqrs.UpdateProfileCommand{
		UserID:    userID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	err := h.commands.UpdatePassword(c.Request.Context(), cqrs.UpdatePasswordCommand{
		UserID:          userID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update password")
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteAccount removes the caller's account once the password is confirmed.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	ctx := c.Request.Context()
	if err := h.queries.VerifyPassword(ctx, cqrs.VerifyPasswordQuery{UserID: userID, Password: req.Password}); err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to delete account")
		return
	}
	if err := h.commands.DeleteUser(ctx, cqrs.DeleteUserCommand{UserID: userID}); err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to delete account")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var req ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	page, err := h.queries.ListUsers(c.Request.Context(), cqrs.ListUsersQuery{
		Page:   req.Params,
		Email:  req.Email,
		Search: req.SearchQuery,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, view)
}

func validateProfilePatch(req UpdateProfileRequest) []middleware.ValidationError {
	var validationErrors []middleware.ValidationError
	if email, ok := req.Email.Get(); ok {
		validationErrors = append(validationErrors, middleware.ValidateField("email", email, "required,email,max=255")...)
	}
	if firstName, ok := req.FirstName.Get(); ok {
		validationErrors = append(validationErrors, middleware.ValidateField("firstName", firstName, "required,max=100")...)
	}
	if lastName, ok := req.LastName.Get(); ok {
		validationErrors = append(validationErrors, middleware.ValidateField("lastName", lastName, "required,max=100")...)
	}
	return validationErrors
}
