package model

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Tipe event domain
const (
	EventPaymentSettled                = "payment.settled"
	EventEnrollmentActivationRequested = "enrollment.activation_requested"
	EventPayrollCompleted              = "payroll.completed"
	EventPayrollFailed                 = "payroll.failed"
)

/*
  outbox_events = event domain yang ditulis di transaksi yang sama dengan perubahan state.
  Dispatcher (cron) membaca yang belum terkirim lalu memanggil handler (mis. aktivasi enrollment).
*/
type OutboxEventModel struct {
	OutboxEventID          uuid.UUID      `gorm:"column:outbox_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"outbox_event_id"`
	OutboxEventType        string         `gorm:"column:outbox_event_type;type:varchar(80);not null;index" json:"outbox_event_type"`
	OutboxEventAggregateID uuid.UUID      `gorm:"column:outbox_event_aggregate_id;type:uuid;not null;index" json:"outbox_event_aggregate_id"`
	OutboxEventPayload     datatypes.JSON `gorm:"column:outbox_event_payload;type:jsonb;not null" json:"outbox_event_payload"`

	OutboxEventAttempts      int        `gorm:"column:outbox_event_attempts;not null;default:0" json:"outbox_event_attempts"`
	OutboxEventLastError     *string    `gorm:"column:outbox_event_last_error" json:"outbox_event_last_error"`
	OutboxEventNextAttemptAt *time.Time `gorm:"column:outbox_event_next_attempt_at;index" json:"outbox_event_next_attempt_at"`
	OutboxEventDispatchedAt  *time.Time `gorm:"column:outbox_event_dispatched_at" json:"outbox_event_dispatched_at"`
	OutboxEventCreatedAt     time.Time  `gorm:"column:outbox_event_created_at;not null;autoCreateTime" json:"outbox_event_created_at"`
}

func (OutboxEventModel) TableName() string {
	return "outbox_events"
}

// NewEvent membungkus payload jadi jsonb.
func NewEvent(eventType string, aggregateID uuid.UUID, payload any) (*OutboxEventModel, error) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal outbox %s: %w", eventType, err)
	}
	return &OutboxEventModel{
		OutboxEventID:          uuid.New(),
		OutboxEventType:        eventType,
		OutboxEventAggregateID: aggregateID,
		OutboxEventPayload:     datatypes.JSON(raw),
	}, nil
}

// Payload event

type PaymentSettledPayload struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	Kind        string    `json:"kind"`
	ReferenceID uuid.UUID `json:"reference_id"`
	Amount      string    `json:"amount"`
	PaidAt      time.Time `json:"paid_at"`
}

type EnrollmentActivationPayload struct {
	StudentProgramID      uuid.UUID `json:"student_program_id"`
	RegistrationPaymentID uuid.UUID `json:"registration_payment_id"`
	PaymentID             uuid.UUID `json:"payment_id"`
}

type PayrollOutcomePayload struct {
	PayrollID      uuid.UUID `json:"payroll_id"`
	DisbursementID uuid.UUID `json:"disbursement_id"`
	TeacherID      uuid.UUID `json:"teacher_id"`
	Amount         string    `json:"amount"`
	FailureCode    string    `json:"failure_code,omitempty"`
}
