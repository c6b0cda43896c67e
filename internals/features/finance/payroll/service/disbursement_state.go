package service

import (
	"fmt"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/payroll/model"
)

// NextDisbursementStatus: PENDING -> {COMPLETED, FAILED}, keduanya terminal.
func NextDisbursementStatus(cur, target model.DisbursementStatus) (model.DisbursementStatus, error) {
	if cur.Terminal() {
		return cur, fmt.Errorf("disbursement is %s: %w", cur, constants.ErrAlreadyFinalized)
	}
	if cur == model.DisbursementPending && target.Terminal() {
		return target, nil
	}
	return cur, fmt.Errorf("disbursement %s -> %s: %w", cur, target, constants.ErrInvalidTransition)
}

func payrollStatusFor(d model.DisbursementStatus) model.PayrollStatus {
	if d == model.DisbursementCompleted {
		return model.PayrollStatusCompleted
	}
	return model.PayrollStatusFailed
}
