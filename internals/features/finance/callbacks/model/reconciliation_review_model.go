package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationReviewModel: antrian review operator (selisih nominal, referensi tak dikenal, sukses terlambat).
// Satu review per callback.
type ReconciliationReviewModel struct {
	ReviewID             uuid.UUID        `gorm:"column:review_id;type:uuid;default:gen_random_uuid();primaryKey" json:"review_id"`
	ReviewCallbackID     uuid.UUID        `gorm:"column:review_callback_id;type:uuid;not null;uniqueIndex" json:"review_callback_id"`
	ReviewReferenceKind  ReferenceKind    `gorm:"column:review_reference_kind;type:varchar(20);not null" json:"review_reference_kind"`
	ReviewReferenceID    string           `gorm:"column:review_reference_id;type:varchar(100);not null;index" json:"review_reference_id"`
	ReviewReason         ReviewReason     `gorm:"column:review_reason;type:varchar(40);not null" json:"review_reason"`
	ReviewExpectedAmount *decimal.Decimal `gorm:"column:review_expected_amount;type:numeric(14,2)" json:"review_expected_amount"`
	ReviewReportedAmount decimal.Decimal  `gorm:"column:review_reported_amount;type:numeric(14,2);not null;default:0" json:"review_reported_amount"`

	ReviewNote       *string    `gorm:"column:review_note;type:text" json:"review_note"`
	ReviewResolvedAt *time.Time `gorm:"column:review_resolved_at" json:"review_resolved_at"`
	ReviewResolvedBy *uuid.UUID `gorm:"column:review_resolved_by;type:uuid" json:"review_resolved_by"`

	ReviewCreatedAt time.Time `gorm:"column:review_created_at;not null;autoCreateTime" json:"review_created_at"`
}

func (ReconciliationReviewModel) TableName() string {
	return "reconciliation_reviews"
}
