package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrCallbackImmutable = errors.New("gateway callback bersifat append-only")

/*
  gateway_callbacks = jejak audit semua callback gateway yang lolos verifikasi.
  dedup_key unik → insert ON CONFLICT DO NOTHING menjadi check-then-insert atomik.
  Baris tidak pernah di-update / di-delete.
*/
type GatewayCallbackModel struct {
	GatewayCallbackID             uuid.UUID       `gorm:"column:gateway_callback_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_callback_id"`
	GatewayCallbackKind           CallbackKind    `gorm:"column:gateway_callback_kind;type:varchar(20);not null" json:"gateway_callback_kind"`
	GatewayCallbackSource         string          `gorm:"column:gateway_callback_source;type:varchar(20);not null" json:"gateway_callback_source"`
	GatewayCallbackReferenceID    string          `gorm:"column:gateway_callback_reference_id;type:varchar(100);not null;index" json:"gateway_callback_reference_id"`
	GatewayCallbackReferenceKind  ReferenceKind   `gorm:"column:gateway_callback_reference_kind;type:varchar(20);not null" json:"gateway_callback_reference_kind"`
	GatewayCallbackEventType      string          `gorm:"column:gateway_callback_event_type;type:varchar(60);not null" json:"gateway_callback_event_type"`
	GatewayCallbackRawStatus      string          `gorm:"column:gateway_callback_raw_status;type:varchar(60);not null" json:"gateway_callback_raw_status"`
	GatewayCallbackAmount         decimal.Decimal `gorm:"column:gateway_callback_amount;type:numeric(14,2);not null;default:0" json:"gateway_callback_amount"`
	GatewayCallbackGatewayEventID string          `gorm:"column:gateway_callback_gateway_event_id;type:varchar(120)" json:"gateway_callback_gateway_event_id"`
	GatewayCallbackDedupKey       string          `gorm:"column:gateway_callback_dedup_key;type:char(64);not null;uniqueIndex" json:"gateway_callback_dedup_key"`
	GatewayCallbackRawPayload     datatypes.JSON  `gorm:"column:gateway_callback_raw_payload;type:jsonb;not null" json:"gateway_callback_raw_payload"`
	GatewayCallbackReceivedAt     time.Time       `gorm:"column:gateway_callback_received_at;not null;index" json:"gateway_callback_received_at"`
}

func (GatewayCallbackModel) TableName() string {
	return "gateway_callbacks"
}

func (GatewayCallbackModel) BeforeUpdate(*gorm.DB) error { return ErrCallbackImmutable }

func (GatewayCallbackModel) BeforeDelete(*gorm.DB) error { return ErrCallbackImmutable }
