package service

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"tahfidzku_backend/internals/constants"
)

// MidtransSignature = hex(SHA512(order_id + status_code + gross_amount + server_key))
func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifyMidtrans gagal tertutup: key kosong, signature kosong, atau beda → ErrInvalidSignature.
func VerifyMidtrans(n MidtransNotification, serverKey string) error {
	got := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if serverKey == "" || got == "" {
		return fmt.Errorf("midtrans order %s: missing signature: %w", n.OrderID, constants.ErrInvalidSignature)
	}
	want := MidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return fmt.Errorf("midtrans order %s: %w", n.OrderID, constants.ErrInvalidSignature)
	}
	return nil
}

// VerifyCallbackToken: header x-callback-token Xendit dibandingkan constant-time.
func VerifyCallbackToken(got, want string) error {
	if want == "" || got == "" {
		return fmt.Errorf("xendit callback token missing: %w", constants.ErrInvalidSignature)
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return fmt.Errorf("xendit callback token mismatch: %w", constants.ErrInvalidSignature)
	}
	return nil
}
