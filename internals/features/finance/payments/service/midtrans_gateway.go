package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/money"
	"tahfidzku_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Midtrans Snap gateway (di-inject, bukan singleton global)
========================================================= */

type MidtransGateway struct {
	client        snap.Client
	expiryMinutes int64
	now           func() time.Time
}

func NewMidtransGateway(serverKey string, useProduction bool, expiryMinutes int64) *MidtransGateway {
	g := &MidtransGateway{expiryMinutes: expiryMinutes, now: time.Now}
	if useProduction {
		g.client.New(serverKey, midtrans.Production)
	} else {
		g.client.New(serverKey, midtrans.Sandbox)
	}
	if g.expiryMinutes <= 0 {
		g.expiryMinutes = 60 * 24
	}
	return g
}

// method internal -> enabled_payments Snap
var enabledPayments = map[model.PaymentMethod][]string{
	model.PaymentMethodVirtualAccount: {"bca_va", "bni_va", "bri_va", "permata_va", "echannel", "other_va"},
	model.PaymentMethodEwallet:        {"gopay", "shopeepay"},
	model.PaymentMethodRetailOutlet:   {"indomaret", "alfamart"},
	model.PaymentMethodCreditCard:     {"credit_card"},
	model.PaymentMethodQR:             {"other_qris"},
}

func (g *MidtransGateway) OpenPayable(ctx context.Context, req OpenPayableRequest) (OpenPayableResult, error) {
	if err := ctx.Err(); err != nil {
		return OpenPayableResult{}, err
	}
	// Midtrans hanya terima rupiah bulat
	if !req.Amount.IsPositive() || !money.IsWholeRupiah(req.Amount) {
		return OpenPayableResult{}, fmt.Errorf("midtrans gross amount %s: %w", req.Amount, constants.ErrInvalidAmount)
	}
	if strings.TrimSpace(req.ExternalID) == "" {
		return OpenPayableResult{}, fmt.Errorf("external id is required (used as order_id)")
	}
	channels, ok := enabledPayments[req.Method]
	if !ok {
		return OpenPayableResult{}, fmt.Errorf("method %s has no gateway channel: %w", req.Method, constants.ErrInvalidTransition)
	}

	gross := req.Amount.IntPart()
	first, last := splitName(req.Customer.Name)

	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.ExternalID,
			GrossAmt: gross,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: first,
			LName: last,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       truncate(req.ExternalID, 50),
				Price:    gross,
				Qty:      1,
				Name:     truncate(firstNonEmpty(req.Description, "Pembayaran Tahfidz"), 50),
				Category: "TAHFIDZ",
			},
		},
		Expiry: &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: g.expiryMinutes,
		},
	}
	for _, ch := range channels {
		sreq.EnabledPayments = append(sreq.EnabledPayments, snap.SnapPaymentType(ch))
	}

	start := g.now()
	resp, merr := g.client.CreateTransaction(sreq)
	if merr != nil {
		return OpenPayableResult{}, fmt.Errorf("midtrans create transaction: %s", merr.Error())
	}
	if resp == nil || resp.Token == "" {
		return OpenPayableResult{}, fmt.Errorf("midtrans create transaction: empty token")
	}

	return OpenPayableResult{
		InvoiceID:  resp.Token,
		PaymentURL: resp.RedirectURL,
		Channel:    strings.Join(channels, ","),
		ExpiresAt:  start.Add(time.Duration(g.expiryMinutes) * time.Minute),
	}, nil
}

/* =========================================================
   Utils
========================================================= */

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "Wali", "Santri"
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
