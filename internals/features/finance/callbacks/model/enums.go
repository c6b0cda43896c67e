package model

type CallbackKind string
type ReferenceKind string
type ReviewReason string

const (
	CallbackKindInvoice        CallbackKind = "INVOICE"
	CallbackKindDisbursement   CallbackKind = "DISBURSEMENT"
	CallbackKindVirtualAccount CallbackKind = "VIRTUAL_ACCOUNT"
)

const (
	ReferencePayment      ReferenceKind = "PAYMENT"
	ReferenceDisbursement ReferenceKind = "DISBURSEMENT"
)

const (
	ReviewAmountMismatch        ReviewReason = "AMOUNT_MISMATCH"
	ReviewUnknownReference      ReviewReason = "UNKNOWN_REFERENCE"
	ReviewLateSuccessAfterFinal ReviewReason = "LATE_SUCCESS_AFTER_FINAL"
)

// Event type yang punya efek saat diulang reconcile. pending, refund, dan
// capture yang masih challenge tidak pernah mengubah status.
var reconcilableEventTypes = map[string]struct{}{
	"settlement": {}, "capture": {}, "expire": {}, "cancel": {}, "deny": {}, "failure": {},
	"COMPLETED": {}, "FAILED": {},
}

const RawStatusChallengedCapture = "capture:challenge"

func ReconcilableEventTypes() []string {
	out := make([]string, 0, len(reconcilableEventTypes))
	for k := range reconcilableEventTypes {
		out = append(out, k)
	}
	return out
}

func IsReconcilable(eventType, rawStatus string) bool {
	if rawStatus == RawStatusChallengedCapture {
		return false
	}
	_, ok := reconcilableEventTypes[eventType]
	return ok
}
