package dto

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/enrollments/student_programs/model"
	"tahfidzku_backend/internals/features/finance/money"
)

type CreateStudentProgramRequest struct {
	StudentID       uuid.UUID       `json:"student_id" validate:"required"`
	StudentName     string          `json:"student_name" validate:"required,min=2,max=150"`
	GuardianEmail   string          `json:"guardian_email" validate:"omitempty,email"`
	GuardianPhone   string          `json:"guardian_phone" validate:"omitempty,max=30"`
	ProgramName     string          `json:"program_name" validate:"required,max=120"`
	RegistrationFee decimal.Decimal `json:"registration_fee"`
	MonthlyFee      decimal.Decimal `json:"monthly_fee"`
}

// CheckFees: tarif tidak negatif dan dalam rupiah penuh.
func (r CreateStudentProgramRequest) CheckFees() error {
	for _, fee := range []decimal.Decimal{r.RegistrationFee, r.MonthlyFee} {
		if fee.IsNegative() || !money.IsWholeRupiah(fee) {
			return fmt.Errorf("tarif %s: %w", fee, constants.ErrInvalidAmount)
		}
	}
	return nil
}

// ToModel: program baru selalu PENDING sampai pendaftaran lunas.
func (r CreateStudentProgramRequest) ToModel() *model.StudentProgramModel {
	m := &model.StudentProgramModel{
		StudentProgramID:              uuid.New(),
		StudentProgramStudentID:       r.StudentID,
		StudentProgramStudentName:     strings.TrimSpace(r.StudentName),
		StudentProgramName:            strings.TrimSpace(r.ProgramName),
		StudentProgramRegistrationFee: r.RegistrationFee,
		StudentProgramMonthlyFee:      r.MonthlyFee,
		StudentProgramStatus:          model.StudentProgramPending,
	}
	if v := strings.TrimSpace(r.GuardianEmail); v != "" {
		m.StudentProgramGuardianEmail = &v
	}
	if v := strings.TrimSpace(r.GuardianPhone); v != "" {
		m.StudentProgramGuardianPhone = &v
	}
	return m
}
