package constants

import "errors"

// Sentinel errors untuk inti rekonsiliasi (voucher, payment, callback, payroll).
// Dibungkus dengan fmt.Errorf("...: %w") dan dicocokkan via errors.Is.
var (
	// Validation
	ErrVoucherInactive   = errors.New("voucher is inactive")
	ErrVoucherNotFound   = errors.New("voucher not found")
	ErrMalformedCallback = errors.New("malformed gateway callback")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNothingToDisburse = errors.New("payroll total is zero, nothing to disburse")

	// Authenticity
	ErrInvalidSignature = errors.New("invalid callback signature")

	// Conflict
	ErrAlreadyFinalized  = errors.New("entity already finalized")
	ErrAlreadyLocked     = errors.New("payroll record already locked")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrPeriodExists      = errors.New("recurring period already issued")

	// Consistency
	ErrAmountMismatch   = errors.New("callback amount does not match payment amount")
	ErrUnknownReference = errors.New("unknown callback reference")

	ErrNotFound = errors.New("record not found")
)
