package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/payments/model"
)

type PaymentEvent string

const (
	EventOpenGateway PaymentEvent = "open_gateway_instance"
	EventMarkPaid    PaymentEvent = "mark_paid"
	EventMarkExpired PaymentEvent = "mark_expired"
	EventCancel      PaymentEvent = "cancel"
	EventMarkUnpaid  PaymentEvent = "mark_unpaid"
)

// PaymentSnapshot: bagian Payment yang dibutuhkan untuk memutuskan transisi.
type PaymentSnapshot struct {
	Status           model.PaymentStatus
	Method           model.PaymentMethod
	Amount           decimal.Decimal
	HasGatewayRecord bool
}

// Transition: event + nominal (hanya untuk mark_paid)
type Transition struct {
	Event  PaymentEvent
	Amount decimal.Decimal
}

// event -> (status asal -> status tujuan)
var paymentTransitions = map[PaymentEvent]map[model.PaymentStatus]model.PaymentStatus{
	EventOpenGateway: {
		model.PaymentStatusPending: model.PaymentStatusAwaitingPayment,
	},
	EventMarkPaid: {
		model.PaymentStatusPending:         model.PaymentStatusPaid,
		model.PaymentStatusAwaitingPayment: model.PaymentStatusPaid,
		model.PaymentStatusUnpaid:          model.PaymentStatusPaid,
	},
	EventMarkExpired: {
		model.PaymentStatusAwaitingPayment: model.PaymentStatusExpired,
	},
	EventCancel: {
		model.PaymentStatusPending:         model.PaymentStatusCancelled,
		model.PaymentStatusAwaitingPayment: model.PaymentStatusCancelled,
		model.PaymentStatusUnpaid:          model.PaymentStatusCancelled,
	},
	EventMarkUnpaid: {
		model.PaymentStatusPending: model.PaymentStatusUnpaid,
	},
}

// NextStatus adalah fungsi transisi murni. Kalau error, status yang dikembalikan
// selalu status saat ini (tidak ada perubahan).
func NextStatus(cur PaymentSnapshot, t Transition) (model.PaymentStatus, error) {
	if cur.Status.Terminal() {
		return cur.Status, fmt.Errorf("%s on %s: %w", t.Event, cur.Status, constants.ErrAlreadyFinalized)
	}

	table, ok := paymentTransitions[t.Event]
	if !ok {
		return cur.Status, fmt.Errorf("unknown event %q: %w", t.Event, constants.ErrInvalidTransition)
	}
	next, ok := table[cur.Status]
	if !ok {
		return cur.Status, fmt.Errorf("%s on %s: %w", t.Event, cur.Status, constants.ErrInvalidTransition)
	}

	switch t.Event {
	case EventMarkUnpaid:
		if !cur.Method.IsCash() || cur.HasGatewayRecord {
			return cur.Status, fmt.Errorf("mark_unpaid needs CASH without gateway record: %w", constants.ErrInvalidTransition)
		}
	case EventOpenGateway:
		if cur.Method.IsCash() || cur.HasGatewayRecord {
			return cur.Status, fmt.Errorf("open_gateway_instance needs non-cash payment without gateway record: %w", constants.ErrInvalidTransition)
		}
	case EventMarkPaid:
		if !t.Amount.Equal(cur.Amount) {
			return cur.Status, fmt.Errorf("reported %s, expected %s: %w", t.Amount, cur.Amount, constants.ErrAmountMismatch)
		}
	}
	return next, nil
}

var gatewayTransitions = map[model.GatewayStatus][]model.GatewayStatus{
	model.GatewayStatusPending: {
		model.GatewayStatusPaid,
		model.GatewayStatusSettled,
		model.GatewayStatusExpired,
		model.GatewayStatusFailed,
	},
	model.GatewayStatusPaid: {
		model.GatewayStatusSettled,
	},
}

// NextGatewayStatus memajukan gateway_status secara monoton.
// Kalau target tidak boleh dari status sekarang, status tidak berubah (changed=false).
func NextGatewayStatus(cur, target model.GatewayStatus) (model.GatewayStatus, bool) {
	for _, allowed := range gatewayTransitions[cur] {
		if allowed == target {
			return target, true
		}
	}
	return cur, false
}
