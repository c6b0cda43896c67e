package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tahfidzku_backend/internals/constants"
)

func TestCheckFees(t *testing.T) {
	req := CreateStudentProgramRequest{
		RegistrationFee: decimal.NewFromInt(100000),
		MonthlyFee:      decimal.NewFromInt(150000),
	}
	require.NoError(t, req.CheckFees())

	req.MonthlyFee = decimal.RequireFromString("150000.50")
	require.ErrorIs(t, req.CheckFees(), constants.ErrInvalidAmount)

	req.MonthlyFee = decimal.NewFromInt(150000)
	req.RegistrationFee = decimal.NewFromInt(-1)
	require.ErrorIs(t, req.CheckFees(), constants.ErrInvalidAmount)
}
