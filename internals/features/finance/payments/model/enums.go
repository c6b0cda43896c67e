package model

type PaymentKind string
type PaymentMethod string
type PaymentStatus string
type GatewayStatus string

const (
	PaymentKindRegistration PaymentKind = "REGISTRATION"
	PaymentKindTuition      PaymentKind = "TUITION"
)

const (
	PaymentMethodCash           PaymentMethod = "CASH"
	PaymentMethodVirtualAccount PaymentMethod = "VIRTUAL_ACCOUNT"
	PaymentMethodEwallet        PaymentMethod = "EWALLET"
	PaymentMethodRetailOutlet   PaymentMethod = "RETAIL_OUTLET"
	PaymentMethodCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentMethodQR             PaymentMethod = "QR"
)

const (
	PaymentStatusPending         PaymentStatus = "PENDING"
	PaymentStatusAwaitingPayment PaymentStatus = "AWAITING_PAYMENT"
	PaymentStatusPaid            PaymentStatus = "PAID"
	PaymentStatusUnpaid          PaymentStatus = "UNPAID"
	PaymentStatusExpired         PaymentStatus = "EXPIRED"
	PaymentStatusCancelled       PaymentStatus = "CANCELLED"
)

const (
	GatewayStatusPending GatewayStatus = "PENDING"
	GatewayStatusPaid    GatewayStatus = "PAID"
	GatewayStatusSettled GatewayStatus = "SETTLED"
	GatewayStatusExpired GatewayStatus = "EXPIRED"
	GatewayStatusFailed  GatewayStatus = "FAILED"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodVirtualAccount, PaymentMethodEwallet,
		PaymentMethodRetailOutlet, PaymentMethodCreditCard, PaymentMethodQR:
		return true
	}
	return false
}

func (m PaymentMethod) IsCash() bool { return m == PaymentMethodCash }

// Terminal: PAID, EXPIRED, CANCELLED tidak pernah berubah lagi
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusExpired || s == PaymentStatusCancelled
}

func (s GatewayStatus) Terminal() bool {
	return s == GatewayStatusSettled || s == GatewayStatusExpired || s == GatewayStatusFailed
}
