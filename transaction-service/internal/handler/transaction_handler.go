package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	CreateTransaction(context.Context, cqrs.CreateTransactionCommand) (*models.TransactionView, error)
	UpdateTransaction(context.Context, cqrs.UpdateTransactionCommand) (*models.TransactionView, error)
	DeleteTransaction(context.Context, cqrs.DeleteTransactionCommand) (*models.TransactionView, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	GetTransaction(context.Context, cqrs.GetTransactionQuery) (*models.TransactionView, error)
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) (*listing.Page[models.TransactionView], error)
	GetBalance(context.Context, cqrs.GetBalanceQuery) (*models.BalanceView, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

type CreateTransactionRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category" validate:"required,oneof=revenue grant loanPayment debt shopping food transport housing bills health education leisure taxes other"`
	Reason   string          `json:"reason" validate:"max=255"`
	Date     *time.Time      `json:"date"`
}

// UpdateTransactionRequest is a patch: absent keys are left unchanged.
type UpdateTransactionRequest struct {
	Amount   models.Optional[decimal.Decimal] `json:"amount"`
	Category models.Optional[string]          `json:"category"`
	Reason   models.Optional[string]          `json:"reason"`
	Date     models.Optional[time.Time]       `json:"date"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	validationErrors := middleware.ValidateRequest(req)
	validationErrors = append(validationErrors, validateAmount(req.Amount)...)
	if len(validationErrors) > 0 {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	view, err := h.commands.CreateTransaction(c.Request.Context(), cqrs.CreateTransactionCommand{
		RequestingUserID: userID,
		Amount:           req.Amount,
		Category:         models.Category(req.Category),
		Reason:           req.Reason,
		Date:             req.Date,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var params listing.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}
	if validationErrors := middleware.ValidateRequest(params); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	page, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		RequestingUserID: userID,
		Page:             params,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID, ok := transactionIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetTransaction(c.Request.Context(), cqrs.GetTransactionQuery{
		TransactionID:    transactionID,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to get transaction")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	transactionID, ok := transactionIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := validatePatch(req); len(validationErrors) > 0 {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	cmd := cqrs.UpdateTransactionCommand{
		TransactionID:    transactionID,
		RequestingUserID: userID,
		Amount:           req.Amount,
		Reason:           req.Reason,
		Date:             req.Date,
	}
	if req.Category.Set {
		cmd.Category = models.Optional[models.Category]{
			Value: models.Category(req.Category.Value),
			Set:   true,
			Null:  req.Category.Null,
		}
	}

	view, err := h.commands.UpdateTransaction(c.Request.Context(), cmd)
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to update transaction")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transactionID, ok := transactionIDParam(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	view, err := h.commands.DeleteTransaction(c.Request.Context(), cqrs.DeleteTransactionCommand{
		TransactionID:    transactionID,
		RequestingUserID: userID,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to delete transaction")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *TransactionHandler) GetBalance(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	balance, err := h.queries.GetBalance(c.Request.Context(), cqrs.GetBalanceQuery{RequestingUserID: userID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, "Failed to compute balance")
		return
	}

	c.JSON(http.StatusOK, balance)
}

func transactionIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("transactionId"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid transaction id")
		return 0, false
	}
	return id, true
}

// maxAmount is the largest value the NUMERIC(14,2) amount column holds.
var maxAmount = decimal.RequireFromString("999999999999.99")

// validateAmount judges the value, not its notation: "100.000" is a valid
// amount with two significant decimal places.
func validateAmount(amount decimal.Decimal) []middleware.ValidationError {
	if !amount.IsPositive() {
		return []middleware.ValidationError{{Field: "amount", Message: "Value must be greater than 0", Type: "gt"}}
	}
	if !amount.Equal(amount.Round(2)) {
		return []middleware.ValidationError{{Field: "amount", Message: "Value must have at most 2 decimal places", Type: "decimal"}}
	}
	if amount.GreaterThan(maxAmount) {
		return []middleware.ValidationError{{Field: "amount", Message: "Value must be at most " + maxAmount.String(), Type: "lte"}}
	}
	return nil
}

func validatePatch(req UpdateTransactionRequest) []middleware.ValidationError {
	var validationErrors []middleware.ValidationError
	if req.Amount.Set {
		if req.Amount.Null {
			validationErrors = append(validationErrors, middleware.ValidationError{Field: "amount", Message: "This field cannot be null", Type: "required"})
		} else {
			validationErrors = append(validationErrors, validateAmount(req.Amount.Value)...)
		}
	}
	if req.Category.Set {
		validationErrors = append(validationErrors, middleware.ValidateField("category", req.Category.Value, "required,oneof="+models.CategoryNames)...)
	}
	if reason, ok := req.Reason.Get(); ok {
		validationErrors = append(validationErrors, middleware.ValidateField("reason", reason, "max=255")...)
	}
	if req.Date.Set && req.Date.Null {
		validationErrors = append(validationErrors, middleware.ValidationError{Field: "date", Message: "This field cannot be null", Type: "required"})
	}
	return validationErrors
}
