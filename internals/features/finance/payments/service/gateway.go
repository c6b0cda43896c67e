package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/features/finance/payments/model"
)

// Customer: data pembayar yang diteruskan ke gateway
type Customer struct {
	Name  string
	Email string
	Phone string
}

type OpenPayableRequest struct {
	Amount      decimal.Decimal
	ExternalID  string
	Method      model.PaymentMethod
	Customer    Customer
	Description string
}

type OpenPayableResult struct {
	InvoiceID  string
	PaymentURL string
	Channel    string
	ExpiresAt  time.Time
}

// Gateway membuka instance invoice/VA di payment gateway.
// Tidak boleh dipanggil saat row lock dipegang.
type Gateway interface {
	OpenPayable(ctx context.Context, req OpenPayableRequest) (OpenPayableResult, error)
}

// GenOrderID: PREFIX-YYYYMMDD-HHMMSS-XXXXXXXX, dipakai sebagai external_id / order_id
func GenOrderID(prefix string) string {
	now := time.Now().In(time.Local).Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return prefix + "-" + now + "-" + strings.ToUpper(u)
}

func orderPrefix(kind model.PaymentKind) string {
	if kind == model.PaymentKindRegistration {
		return "REG"
	}
	return "SPP"
}
