package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StudentProgramStatus string

const (
	StudentProgramPending  StudentProgramStatus = "PENDING"
	StudentProgramActive   StudentProgramStatus = "ACTIVE"
	StudentProgramInactive StudentProgramStatus = "INACTIVE"
)

// StudentProgramModel = pendaftaran santri ke satu program tahfidz.
// Sumber tarif pendaftaran & SPP bulanan untuk billing.
type StudentProgramModel struct {
	StudentProgramID uuid.UUID `gorm:"column:student_program_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_program_id"`

	StudentProgramStudentID     uuid.UUID `gorm:"column:student_program_student_id;type:uuid;not null;index" json:"student_program_student_id"`
	StudentProgramStudentName   string    `gorm:"column:student_program_student_name;type:varchar(150);not null" json:"student_program_student_name"`
	StudentProgramGuardianEmail *string   `gorm:"column:student_program_guardian_email;type:varchar(150)" json:"student_program_guardian_email"`
	StudentProgramGuardianPhone *string   `gorm:"column:student_program_guardian_phone;type:varchar(30)" json:"student_program_guardian_phone"`
	StudentProgramName          string    `gorm:"column:student_program_name;type:varchar(120);not null" json:"student_program_name"`

	StudentProgramRegistrationFee decimal.Decimal `gorm:"column:student_program_registration_fee;type:numeric(14,2);not null;default:0" json:"student_program_registration_fee"`
	StudentProgramMonthlyFee      decimal.Decimal `gorm:"column:student_program_monthly_fee;type:numeric(14,2);not null;default:0" json:"student_program_monthly_fee"`

	StudentProgramStatus      StudentProgramStatus `gorm:"column:student_program_status;type:varchar(20);not null;default:'PENDING'" json:"student_program_status"`
	StudentProgramActivatedAt *time.Time           `gorm:"column:student_program_activated_at" json:"student_program_activated_at"`

	StudentProgramCreatedAt time.Time `gorm:"column:student_program_created_at;not null;autoCreateTime" json:"student_program_created_at"`
	StudentProgramUpdatedAt time.Time `gorm:"column:student_program_updated_at;not null;autoUpdateTime" json:"student_program_updated_at"`
}

func (StudentProgramModel) TableName() string {
	return "student_programs"
}
