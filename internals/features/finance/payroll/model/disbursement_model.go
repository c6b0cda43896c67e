package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DisbursementModel: payout gaji ke rekening guru.
// Amount adalah snapshot total_salary saat finalize, tidak pernah diubah.
type DisbursementModel struct {
	DisbursementID          uuid.UUID          `gorm:"column:disbursement_id;type:uuid;default:gen_random_uuid();primaryKey" json:"disbursement_id"`
	DisbursementPayrollID   uuid.UUID          `gorm:"column:disbursement_payroll_id;type:uuid;not null;uniqueIndex" json:"disbursement_payroll_id"`
	DisbursementGatewayID   *string            `gorm:"column:disbursement_gateway_id;type:varchar(100)" json:"disbursement_gateway_id"`
	DisbursementAmount      decimal.Decimal    `gorm:"column:disbursement_amount;type:numeric(14,2);not null;<-:create" json:"disbursement_amount"`
	DisbursementStatus      DisbursementStatus `gorm:"column:disbursement_status;type:varchar(20);not null;default:'PENDING'" json:"disbursement_status"`
	DisbursementProcessedAt *time.Time         `gorm:"column:disbursement_processed_at" json:"disbursement_processed_at"`
	DisbursementFailureCode *string            `gorm:"column:disbursement_failure_code;type:varchar(80)" json:"disbursement_failure_code"`

	DisbursementCreatedAt time.Time `gorm:"column:disbursement_created_at;not null;autoCreateTime" json:"disbursement_created_at"`
	DisbursementUpdatedAt time.Time `gorm:"column:disbursement_updated_at;not null;autoUpdateTime" json:"disbursement_updated_at"`
}

func (DisbursementModel) TableName() string {
	return "disbursements"
}
