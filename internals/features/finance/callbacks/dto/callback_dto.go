package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/features/finance/callbacks/model"
)

type ResolveReviewRequest struct {
	Note string `json:"note" validate:"required,min=3,max=500"`
}

// WebhookAck: body balasan webhook. Gateway hanya butuh 2xx, field lain untuk log.
type WebhookAck struct {
	Outcome     string    `json:"outcome"`
	CallbackID  uuid.UUID `json:"callback_id"`
	ReferenceID string    `json:"reference_id,omitempty"`
}

// CallbackResponse: baris audit trail tanpa raw payload (payload bisa besar & berisi data bank).
type CallbackResponse struct {
	ID             uuid.UUID           `json:"id"`
	Kind           model.CallbackKind  `json:"kind"`
	Source         string              `json:"source"`
	ReferenceID    string              `json:"reference_id"`
	ReferenceKind  model.ReferenceKind `json:"reference_kind"`
	EventType      string              `json:"event_type"`
	RawStatus      string              `json:"raw_status"`
	Amount         decimal.Decimal     `json:"amount"`
	GatewayEventID string              `json:"gateway_event_id"`
	ReceivedAt     time.Time           `json:"received_at"`
}

func FromCallback(m model.GatewayCallbackModel) CallbackResponse {
	return CallbackResponse{
		ID:             m.GatewayCallbackID,
		Kind:           m.GatewayCallbackKind,
		Source:         m.GatewayCallbackSource,
		ReferenceID:    m.GatewayCallbackReferenceID,
		ReferenceKind:  m.GatewayCallbackReferenceKind,
		EventType:      m.GatewayCallbackEventType,
		RawStatus:      m.GatewayCallbackRawStatus,
		Amount:         m.GatewayCallbackAmount,
		GatewayEventID: m.GatewayCallbackGatewayEventID,
		ReceivedAt:     m.GatewayCallbackReceivedAt,
	}
}

func FromCallbacks(rows []model.GatewayCallbackModel) []CallbackResponse {
	out := make([]CallbackResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromCallback(r))
	}
	return out
}
