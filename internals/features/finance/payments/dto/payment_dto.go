package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	callbackDTO "tahfidzku_backend/internals/features/finance/callbacks/dto"
	"tahfidzku_backend/internals/features/finance/payments/model"
	"tahfidzku_backend/internals/features/finance/payments/service"
)

/* =========================================================
   REQUEST DTOs
========================================================= */

type CustomerInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=30"`
}

// OpenGatewayRequest: POST /payments/:id/open
type OpenGatewayRequest struct {
	Customer CustomerInput `json:"customer" validate:"required"`
}

func (r OpenGatewayRequest) ToCustomer() service.Customer {
	return service.Customer{
		Name:  strings.TrimSpace(r.Customer.Name),
		Email: strings.TrimSpace(r.Customer.Email),
		Phone: strings.TrimSpace(r.Customer.Phone),
	}
}

// ConfirmCashRequest: POST /payments/:id/confirm-cash
type ConfirmCashRequest struct {
	Amount decimal.Decimal `json:"amount"`
	PaidAt *time.Time      `json:"paid_at,omitempty"`
}

type CreateRegistrationRequest struct {
	StudentProgramID uuid.UUID  `json:"student_program_id" validate:"required"`
	VoucherCode      string     `json:"voucher_code" validate:"omitempty,max=50"`
	Method           string     `json:"method" validate:"required"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
}

func (r CreateRegistrationRequest) ToInput(now time.Time) service.RegistrationInput {
	date := now
	if r.RegistrationDate != nil {
		date = *r.RegistrationDate
	}
	return service.RegistrationInput{
		StudentProgramID: r.StudentProgramID,
		VoucherCode:      strings.TrimSpace(r.VoucherCode),
		Method:           model.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.Method))),
		RegistrationDate: date,
	}
}

type IssuePeriodRequest struct {
	StudentProgramID uuid.UUID `json:"student_program_id" validate:"required"`
	Month            int       `json:"month" validate:"required,min=1,max=12"`
	Year             int       `json:"year" validate:"required,min=2000,max=2100"`
	VoucherCode      string    `json:"voucher_code" validate:"omitempty,max=50"`
	Method           string    `json:"method" validate:"required"`
	DueDay           int       `json:"due_day" validate:"omitempty,min=1,max=28"`
}

func (r IssuePeriodRequest) ToInput() service.PeriodInput {
	return service.PeriodInput{
		StudentProgramID: r.StudentProgramID,
		Month:            r.Month,
		Year:             r.Year,
		VoucherCode:      strings.TrimSpace(r.VoucherCode),
		Method:           model.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.Method))),
		DueDay:           r.DueDay,
	}
}

// RunMonthlyRequest: method kosong → VIRTUAL_ACCOUNT
type RunMonthlyRequest struct {
	Month  int    `json:"month" validate:"required,min=1,max=12"`
	Year   int    `json:"year" validate:"required,min=2000,max=2100"`
	Method string `json:"method" validate:"omitempty"`
}

func (r RunMonthlyRequest) PaymentMethod() model.PaymentMethod {
	m := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(r.Method)))
	if m == "" {
		return model.PaymentMethodVirtualAccount
	}
	return m
}

/* =========================================================
   RESPONSE DTOs
========================================================= */

type PaymentDetailResponse struct {
	Payment   *model.PaymentModel            `json:"payment"`
	Gateway   *model.GatewayPaymentModel     `json:"gateway,omitempty"`
	Callbacks []callbackDTO.CallbackResponse `json:"callbacks"`
}
