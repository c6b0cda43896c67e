package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecurringPeriodModel = satu bulan SPP untuk satu student_program.
// Maksimal satu periode per (student_program_id, month, year).
type RecurringPeriodModel struct {
	RecurringPeriodID               uuid.UUID `gorm:"column:recurring_period_id;type:uuid;default:gen_random_uuid();primaryKey" json:"recurring_period_id"`
	RecurringPeriodStudentProgramID uuid.UUID `gorm:"column:recurring_period_student_program_id;type:uuid;not null;uniqueIndex:uq_recurring_periods_program_month,priority:1" json:"recurring_period_student_program_id"`
	RecurringPeriodMonth            int       `gorm:"column:recurring_period_month;not null;uniqueIndex:uq_recurring_periods_program_month,priority:2" json:"recurring_period_month"`
	RecurringPeriodYear             int       `gorm:"column:recurring_period_year;not null;uniqueIndex:uq_recurring_periods_program_month,priority:3" json:"recurring_period_year"`

	RecurringPeriodIssueDate time.Time `gorm:"column:recurring_period_issue_date;type:date;not null" json:"recurring_period_issue_date"`
	RecurringPeriodDueDate   time.Time `gorm:"column:recurring_period_due_date;type:date;not null" json:"recurring_period_due_date"`

	RecurringPeriodBaseFee    decimal.Decimal `gorm:"column:recurring_period_base_fee;type:numeric(14,2);not null" json:"recurring_period_base_fee"`
	RecurringPeriodVoucherID  *uuid.UUID      `gorm:"column:recurring_period_voucher_id;type:uuid" json:"recurring_period_voucher_id"`
	RecurringPeriodDiscount   decimal.Decimal `gorm:"column:recurring_period_discount;type:numeric(14,2);not null;default:0" json:"recurring_period_discount"`
	RecurringPeriodNetPayable decimal.Decimal `gorm:"column:recurring_period_net_payable;type:numeric(14,2);not null" json:"recurring_period_net_payable"`
	RecurringPeriodSettledAt  *time.Time      `gorm:"column:recurring_period_settled_at" json:"recurring_period_settled_at"`

	RecurringPeriodCreatedAt time.Time `gorm:"column:recurring_period_created_at;not null;autoCreateTime" json:"recurring_period_created_at"`
}

func (RecurringPeriodModel) TableName() string {
	return "recurring_periods"
}
