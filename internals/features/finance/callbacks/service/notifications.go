package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/callbacks/model"
	paymentService "tahfidzku_backend/internals/features/finance/payments/service"
	payrollModel "tahfidzku_backend/internals/features/finance/payroll/model"
)

const (
	SourceMidtrans = "midtrans"
	SourceXendit   = "xendit"
)

var wib = time.FixedZone("WIB", 7*60*60)

// Event: callback yang sudah dinormalisasi, siap di-dedup & diterapkan.
type Event struct {
	Source         string
	Kind           model.CallbackKind
	ReferenceKind  model.ReferenceKind
	ReferenceID    string
	EventType      string
	RawStatus      string
	Amount         decimal.Decimal
	GatewayEventID string
	Channel        string
	FailureCode    string
	OccurredAt     time.Time

	PaymentAction      paymentService.GatewayAction
	DisbursementStatus payrollModel.DisbursementStatus
}

// DedupKey = sha256(kind | reference | event_type | gateway event id)
func (e Event) DedupKey() string {
	sum := sha256.Sum256([]byte(strings.Join([]string{
		string(e.Kind), e.ReferenceID, e.EventType, e.GatewayEventID,
	}, "|")))
	return hex.EncodeToString(sum[:])
}

/* =========================================================
   Midtrans (Snap / Core API HTTP notification)
========================================================= */

type MidtransNotification struct {
	TransactionTime   string `json:"transaction_time"`
	TransactionStatus string `json:"transaction_status"` // capture, settlement, pending, deny, cancel, expire, refund, failure
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"` // accept / challenge / deny
	SettlementTime    string `json:"settlement_time"`
	Bank              string `json:"bank"`
	VANumbers         []struct {
		Bank     string `json:"bank"`
		VANumber string `json:"va_number"`
	} `json:"va_numbers"`
}

func ParseMidtrans(body []byte) (MidtransNotification, error) {
	var n MidtransNotification
	if err := sonic.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("midtrans payload: %v: %w", err, constants.ErrMalformedCallback)
	}
	if n.OrderID == "" || n.TransactionStatus == "" || n.StatusCode == "" || n.GrossAmount == "" {
		return n, fmt.Errorf("midtrans payload missing order_id/status/amount: %w", constants.ErrMalformedCallback)
	}
	return n, nil
}

func (n MidtransNotification) Normalize(receivedAt time.Time) (Event, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(n.GrossAmount))
	if err != nil {
		return Event{}, fmt.Errorf("gross_amount %q: %w", n.GrossAmount, constants.ErrMalformedCallback)
	}
	status := strings.ToLower(strings.TrimSpace(n.TransactionStatus))
	fraud := strings.ToLower(strings.TrimSpace(n.FraudStatus))

	raw := status
	if fraud != "" {
		raw = status + ":" + fraud
	}
	kind := model.CallbackKindInvoice
	switch strings.ToLower(n.PaymentType) {
	case "bank_transfer", "echannel", "permata":
		kind = model.CallbackKindVirtualAccount
	}

	ev := Event{
		Source:         SourceMidtrans,
		Kind:           kind,
		ReferenceKind:  model.ReferencePayment,
		ReferenceID:    n.OrderID,
		EventType:      status,
		RawStatus:      raw,
		Amount:         amount,
		GatewayEventID: n.TransactionID,
		Channel:        n.channel(),
		OccurredAt:     midtransTime(receivedAt, n.SettlementTime, n.TransactionTime),
		PaymentAction:  midtransAction(status, fraud),
	}
	return ev, nil
}

func (n MidtransNotification) channel() string {
	if len(n.VANumbers) > 0 && n.VANumbers[0].Bank != "" {
		return n.VANumbers[0].Bank + "_va"
	}
	if n.Bank != "" {
		return n.Bank
	}
	return n.PaymentType
}

// midtransAction: status Midtrans → aksi gateway. String kosong = tidak ada efek (mis. refund).
func midtransAction(status, fraud string) paymentService.GatewayAction {
	switch status {
	case "settlement":
		return paymentService.GatewayActionSettled
	case "capture":
		switch fraud {
		case "accept", "":
			return paymentService.GatewayActionPaid
		case "challenge":
			return paymentService.GatewayActionPending
		default:
			return paymentService.GatewayActionFailed
		}
	case "pending":
		return paymentService.GatewayActionPending
	case "expire":
		return paymentService.GatewayActionExpired
	case "cancel", "deny", "failure":
		return paymentService.GatewayActionFailed
	}
	return ""
}

// midtransTime: waktu Midtrans dalam WIB, format "2006-01-02 15:04:05"
func midtransTime(fallback time.Time, values ...string) time.Time {
	for _, v := range values {
		if v == "" {
			continue
		}
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", v, wib); err == nil {
			return t.UTC()
		}
	}
	return fallback
}

/* =========================================================
   Xendit disbursement callback
========================================================= */

type XenditDisbursementCallback struct {
	ID                      string          `json:"id"`
	UserID                  string          `json:"user_id"`
	ExternalID              string          `json:"external_id"`
	Amount                  decimal.Decimal `json:"amount"`
	BankCode                string          `json:"bank_code"`
	AccountHolderName       string          `json:"account_holder_name"`
	DisbursementDescription string          `json:"disbursement_description"`
	Status                  string          `json:"status"` // PENDING, COMPLETED, FAILED
	FailureCode             string          `json:"failure_code"`
	Updated                 string          `json:"updated"`
}

func ParseXenditDisbursement(body []byte) (XenditDisbursementCallback, error) {
	var cb XenditDisbursementCallback
	if err := sonic.Unmarshal(body, &cb); err != nil {
		return cb, fmt.Errorf("xendit payload: %v: %w", err, constants.ErrMalformedCallback)
	}
	if cb.ExternalID == "" || cb.Status == "" {
		return cb, fmt.Errorf("xendit payload missing external_id/status: %w", constants.ErrMalformedCallback)
	}
	return cb, nil
}

func (cb XenditDisbursementCallback) Normalize(receivedAt time.Time) Event {
	status := strings.ToUpper(strings.TrimSpace(cb.Status))
	ds := payrollModel.DisbursementPending
	switch status {
	case "COMPLETED":
		ds = payrollModel.DisbursementCompleted
	case "FAILED":
		ds = payrollModel.DisbursementFailed
	}

	occurred := receivedAt
	if t, err := time.Parse(time.RFC3339, cb.Updated); err == nil {
		occurred = t.UTC()
	}
	return Event{
		Source:             SourceXendit,
		Kind:               model.CallbackKindDisbursement,
		ReferenceKind:      model.ReferenceDisbursement,
		ReferenceID:        cb.ExternalID,
		EventType:          status,
		RawStatus:          status,
		Amount:             cb.Amount,
		GatewayEventID:     cb.ID,
		Channel:            cb.BankCode,
		FailureCode:        cb.FailureCode,
		OccurredAt:         occurred,
		DisbursementStatus: ds,
	}
}

// decodeStored membangun ulang Event dari payload mentah yang sudah tersimpan (tanpa verifikasi ulang).
func decodeStored(source string, raw []byte, receivedAt time.Time) (Event, error) {
	switch source {
	case SourceMidtrans:
		n, err := ParseMidtrans(raw)
		if err != nil {
			return Event{}, err
		}
		return n.Normalize(receivedAt)
	case SourceXendit:
		cb, err := ParseXenditDisbursement(raw)
		if err != nil {
			return Event{}, err
		}
		return cb.Normalize(receivedAt), nil
	}
	return Event{}, fmt.Errorf("unknown callback source %q: %w", source, constants.ErrMalformedCallback)
}
