package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/money"
)

type PayoutRequest struct {
	ExternalID        string
	Amount            decimal.Decimal
	BankCode          string
	AccountHolderName string
	AccountNumber     string
	Description       string
}

type PayoutResult struct {
	ID     string
	Status string
}

// PayoutGateway: gateway pencairan (disbursement). ExternalID dipakai sebagai idempotency key.
type PayoutGateway interface {
	RequestDisbursement(ctx context.Context, req PayoutRequest) (PayoutResult, error)
}

/* =========================================================
   Xendit /disbursements
========================================================= */

type XenditPayoutClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

func NewXenditPayoutClient(baseURL, secretKey string, timeout time.Duration) *XenditPayoutClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &XenditPayoutClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type xenditDisbursementBody struct {
	ExternalID        string `json:"external_id"`
	Amount            int64  `json:"amount"`
	BankCode          string `json:"bank_code"`
	AccountHolderName string `json:"account_holder_name"`
	AccountNumber     string `json:"account_number"`
	Description       string `json:"description,omitempty"`
}

type xenditDisbursementResp struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (x *XenditPayoutClient) RequestDisbursement(ctx context.Context, req PayoutRequest) (PayoutResult, error) {
	// IDR tanpa sen
	if !req.Amount.IsPositive() || !money.IsWholeRupiah(req.Amount) {
		return PayoutResult{}, fmt.Errorf("xendit amount %s: %w", req.Amount, constants.ErrInvalidAmount)
	}
	if x.secretKey == "" {
		return PayoutResult{}, fmt.Errorf("xendit secret key belum diset")
	}

	b, err := sonic.Marshal(xenditDisbursementBody{
		ExternalID:        req.ExternalID,
		Amount:            req.Amount.IntPart(),
		BankCode:          req.BankCode,
		AccountHolderName: req.AccountHolderName,
		AccountNumber:     req.AccountNumber,
		Description:       req.Description,
	})
	if err != nil {
		return PayoutResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, x.baseURL+"/disbursements", bytes.NewReader(b))
	if err != nil {
		return PayoutResult{}, err
	}
	httpReq.SetBasicAuth(x.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-IDEMPOTENCY-KEY", req.ExternalID)

	resp, err := x.client.Do(httpReq)
	if err != nil {
		return PayoutResult{}, fmt.Errorf("xendit request disbursement: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return PayoutResult{}, err
	}
	var out xenditDisbursementResp
	_ = sonic.Unmarshal(raw, &out)

	if resp.StatusCode >= 300 {
		return PayoutResult{}, fmt.Errorf("xendit request disbursement failed: %s %s %s", resp.Status, out.ErrorCode, out.Message)
	}
	if out.ID == "" {
		return PayoutResult{}, fmt.Errorf("xendit: empty disbursement id")
	}
	return PayoutResult{ID: out.ID, Status: out.Status}, nil
}
