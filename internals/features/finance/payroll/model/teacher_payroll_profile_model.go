package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TeacherPayrollProfileModel: tarif per jam, insentif bulanan, dan rekening tujuan payout
type TeacherPayrollProfileModel struct {
	TeacherPayrollProfileID         uuid.UUID       `gorm:"column:teacher_payroll_profile_id;type:uuid;default:gen_random_uuid();primaryKey" json:"teacher_payroll_profile_id"`
	TeacherPayrollProfileTeacherID  uuid.UUID       `gorm:"column:teacher_payroll_profile_teacher_id;type:uuid;not null;uniqueIndex" json:"teacher_payroll_profile_teacher_id"`
	TeacherPayrollProfileName       string          `gorm:"column:teacher_payroll_profile_name;type:varchar(150);not null" json:"teacher_payroll_profile_name"`
	TeacherPayrollProfileHourlyRate decimal.Decimal `gorm:"column:teacher_payroll_profile_hourly_rate;type:numeric(14,2);not null;default:0" json:"teacher_payroll_profile_hourly_rate"`
	TeacherPayrollProfileIncentive  decimal.Decimal `gorm:"column:teacher_payroll_profile_incentive;type:numeric(14,2);not null;default:0" json:"teacher_payroll_profile_incentive"`

	TeacherPayrollProfileBankCode          string `gorm:"column:teacher_payroll_profile_bank_code;type:varchar(20);not null" json:"teacher_payroll_profile_bank_code"`
	TeacherPayrollProfileAccountNumber     string `gorm:"column:teacher_payroll_profile_account_number;type:varchar(40);not null" json:"teacher_payroll_profile_account_number"`
	TeacherPayrollProfileAccountHolderName string `gorm:"column:teacher_payroll_profile_account_holder_name;type:varchar(150);not null" json:"teacher_payroll_profile_account_holder_name"`

	TeacherPayrollProfileCreatedAt time.Time `gorm:"column:teacher_payroll_profile_created_at;not null;autoCreateTime" json:"teacher_payroll_profile_created_at"`
	TeacherPayrollProfileUpdatedAt time.Time `gorm:"column:teacher_payroll_profile_updated_at;not null;autoUpdateTime" json:"teacher_payroll_profile_updated_at"`
}

func (TeacherPayrollProfileModel) TableName() string {
	return "teacher_payroll_profiles"
}
