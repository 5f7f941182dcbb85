package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrSchemeNotFound            = errors.New("scheme not found")
	ErrAmountOutOfRange          = errors.New("amount outside scheme bounds")
	ErrDuplicateActiveCommitment = errors.New("active commitment already exists for scheme")
	ErrNotMatured                = errors.New("investment has not matured")
	ErrClaimNotFound             = errors.New("withdrawal claim not found")
	ErrClaimAlreadyCleared       = errors.New("withdrawal claim already cleared")
	ErrInvestmentNotFound        = errors.New("investment not found")
	ErrInvalidRateFormat         = errors.New("invalid rate format")
	ErrUserNotFound              = errors.New("user not found")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeSchemeNotFound            = "SCHEME_NOT_FOUND"
	ErrCodeAmountOutOfRange          = "AMOUNT_OUT_OF_RANGE"
	ErrCodeDuplicateActiveCommitment = "DUPLICATE_ACTIVE_COMMITMENT"
	ErrCodeNotMatured                = "NOT_MATURED"
	ErrCodeClaimNotFound             = "CLAIM_NOT_FOUND"
	ErrCodeClaimAlreadyCleared       = "CLAIM_ALREADY_CLEARED"
	ErrCodeInvestmentNotFound        = "INVESTMENT_NOT_FOUND"
	ErrCodeInvalidRateFormat         = "INVALID_RATE_FORMAT"
	ErrCodeUserNotFound              = "USER_NOT_FOUND"
	ErrCodeStorageError              = "STORAGE_ERROR"
)

// Wrap common errors with business context

func WrapSchemeNotFound(schemeID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeSchemeNotFound,
		fmt.Sprintf("No live scheme with ID %d", schemeID),
		ErrSchemeNotFound,
	)
}

func WrapAmountOutOfRange(amount, min, max string) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountOutOfRange,
		fmt.Sprintf("Amount %s is outside the allowed range [%s, %s]", amount, min, max),
		ErrAmountOutOfRange,
	)
}

func WrapDuplicateActiveCommitment(schemeID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateActiveCommitment,
		fmt.Sprintf("An outstanding investment already exists for scheme %d", schemeID),
		ErrDuplicateActiveCommitment,
	)
}

func WrapNotMatured(investmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotMatured,
		fmt.Sprintf("Investment %s is not ready to withdraw", investmentID),
		ErrNotMatured,
	)
}

func WrapClaimNotFound(claimID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClaimNotFound,
		fmt.Sprintf("Withdrawal claim %s not found", claimID),
		ErrClaimNotFound,
	)
}

func WrapClaimAlreadyCleared(claimID string) *BusinessError {
	return NewBusinessError(
		ErrCodeClaimAlreadyCleared,
		fmt.Sprintf("Withdrawal claim %s is already cleared", claimID),
		ErrClaimAlreadyCleared,
	)
}

func WrapInvestmentNotFound(investmentID string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvestmentNotFound,
		fmt.Sprintf("Investment %s not found", investmentID),
		ErrInvestmentNotFound,
	)
}

func WrapInvalidRateFormat(token string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRateFormat,
		fmt.Sprintf("Rate token %q must be a non-negative percentage", token),
		ErrInvalidRateFormat,
	)
}

func WrapUserNotFound(username string) *BusinessError {
	return NewBusinessError(
		ErrCodeUserNotFound,
		fmt.Sprintf("User %s not found", username),
		ErrUserNotFound,
	)
}

func WrapStorageError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeStorageError,
		"storage operation failed",
		err,
	)
}
