package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollRecordModel: gaji satu guru untuk satu bulan.
// total_salary = base + incentive - leave - sick - absence, selalu >= 0.
type PayrollRecordModel struct {
	PayrollID        uuid.UUID `gorm:"column:payroll_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payroll_id"`
	PayrollTeacherID uuid.UUID `gorm:"column:payroll_teacher_id;type:uuid;not null;uniqueIndex:uq_payroll_teacher_month,priority:1" json:"payroll_teacher_id"`
	PayrollMonth     int       `gorm:"column:payroll_month;not null;uniqueIndex:uq_payroll_teacher_month,priority:2" json:"payroll_month"`
	PayrollYear      int       `gorm:"column:payroll_year;not null;uniqueIndex:uq_payroll_teacher_month,priority:3" json:"payroll_year"`

	PayrollTotalHoursTaught decimal.Decimal `gorm:"column:payroll_total_hours_taught;type:numeric(8,2);not null;default:0" json:"payroll_total_hours_taught"`
	PayrollBaseSalary       decimal.Decimal `gorm:"column:payroll_base_salary;type:numeric(14,2);not null;default:0" json:"payroll_base_salary"`
	PayrollIncentive        decimal.Decimal `gorm:"column:payroll_incentive;type:numeric(14,2);not null;default:0" json:"payroll_incentive"`
	PayrollLeaveDeduction   decimal.Decimal `gorm:"column:payroll_leave_deduction;type:numeric(14,2);not null;default:0" json:"payroll_leave_deduction"`
	PayrollSickDeduction    decimal.Decimal `gorm:"column:payroll_sick_deduction;type:numeric(14,2);not null;default:0" json:"payroll_sick_deduction"`
	PayrollAbsenceDeduction decimal.Decimal `gorm:"column:payroll_absence_deduction;type:numeric(14,2);not null;default:0" json:"payroll_absence_deduction"`
	PayrollTotalSalary      decimal.Decimal `gorm:"column:payroll_total_salary;type:numeric(14,2);not null;default:0" json:"payroll_total_salary"`

	PayrollComputedAt *time.Time    `gorm:"column:payroll_computed_at" json:"payroll_computed_at"`
	PayrollStatus     PayrollStatus `gorm:"column:payroll_status;type:varchar(20);not null;default:'DRAFT'" json:"payroll_status"`

	PayrollCreatedAt time.Time `gorm:"column:payroll_created_at;not null;autoCreateTime" json:"payroll_created_at"`
	PayrollUpdatedAt time.Time `gorm:"column:payroll_updated_at;not null;autoUpdateTime" json:"payroll_updated_at"`
}

func (PayrollRecordModel) TableName() string {
	return "payroll_records"
}
