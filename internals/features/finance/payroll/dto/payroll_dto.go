package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/features/finance/payroll/model"
	"tahfidzku_backend/internals/features/finance/payroll/service"
)

type RecordAttendanceRequest struct {
	TeacherID   uuid.UUID       `json:"teacher_id" validate:"required"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Status      string          `json:"status" validate:"required,oneof=PRESENT LEAVE SICK ABSENT"`
	HoursTaught decimal.Decimal `json:"hours_taught"`
	Note        string          `json:"note" validate:"max=500"`
}

func (r RecordAttendanceRequest) ToInput() (service.AttendanceInput, error) {
	d, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return service.AttendanceInput{}, err
	}
	return service.AttendanceInput{
		TeacherID:   r.TeacherID,
		Date:        d,
		Status:      model.AttendanceStatus(r.Status),
		HoursTaught: r.HoursTaught,
		Note:        r.Note,
	}, nil
}

type UpsertProfileRequest struct {
	Name              string          `json:"name" validate:"required,max=150"`
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	Incentive         decimal.Decimal `json:"incentive"`
	BankCode          string          `json:"bank_code" validate:"required,max=20"`
	AccountNumber     string          `json:"account_number" validate:"required,numeric,max=40"`
	AccountHolderName string          `json:"account_holder_name" validate:"required,max=150"`
}

func (r UpsertProfileRequest) ToInput(teacherID uuid.UUID) service.ProfileInput {
	return service.ProfileInput{
		TeacherID:         teacherID,
		Name:              r.Name,
		HourlyRate:        r.HourlyRate,
		Incentive:         r.Incentive,
		BankCode:          r.BankCode,
		AccountNumber:     r.AccountNumber,
		AccountHolderName: r.AccountHolderName,
	}
}

type CalculateRequest struct {
	TeacherID uuid.UUID `json:"teacher_id" validate:"required"`
	Month     int       `json:"month" validate:"required,min=1,max=12"`
	Year      int       `json:"year" validate:"required,min=2000"`
}
