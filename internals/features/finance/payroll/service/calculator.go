package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/money"
	"tahfidzku_backend/internals/features/finance/payroll/model"
)

// DeductionRates: potongan per hari untuk izin, sakit, dan alpa
type DeductionRates struct {
	LeavePerDay   decimal.Decimal
	SickPerDay    decimal.Decimal
	AbsencePerDay decimal.Decimal
}

type Breakdown struct {
	TotalHours decimal.Decimal
	LeaveDays  int
	SickDays   int
	AbsentDays int

	BaseSalary       decimal.Decimal
	Incentive        decimal.Decimal
	LeaveDeduction   decimal.Decimal
	SickDeduction    decimal.Decimal
	AbsenceDeduction decimal.Decimal
	TotalSalary      decimal.Decimal
}

// Compute menghitung gaji bulanan dari absensi. Murni, tanpa I/O.
// Potongan dipotong berurutan (izin, sakit, alpa) dan tidak pernah melewati sisa gaji.
// Semua komponen dibulatkan ke rupiah penuh; payout gateway tidak menerima sen.
func Compute(att []model.TeacherAttendanceModel, hourlyRate, incentive decimal.Decimal, rates DeductionRates) (Breakdown, error) {
	for _, v := range []decimal.Decimal{hourlyRate, incentive, rates.LeavePerDay, rates.SickPerDay, rates.AbsencePerDay} {
		if v.IsNegative() {
			return Breakdown{}, fmt.Errorf("negative rate %s: %w", v, constants.ErrInvalidAmount)
		}
	}

	b := Breakdown{TotalHours: decimal.Zero, Incentive: money.Rupiah(incentive)}
	for _, a := range att {
		if a.TeacherAttendanceHoursTaught.IsNegative() {
			return Breakdown{}, fmt.Errorf("negative hours on %s: %w", a.TeacherAttendanceDate.Format("2006-01-02"), constants.ErrInvalidAmount)
		}
		b.TotalHours = b.TotalHours.Add(a.TeacherAttendanceHoursTaught)
		switch a.TeacherAttendanceStatus {
		case model.AttendanceLeave:
			b.LeaveDays++
		case model.AttendanceSick:
			b.SickDays++
		case model.AttendanceAbsent:
			b.AbsentDays++
		}
	}

	b.BaseSalary = money.Rupiah(b.TotalHours.Mul(hourlyRate))
	remaining := b.BaseSalary.Add(b.Incentive)

	b.LeaveDeduction, remaining = capAt(perDay(rates.LeavePerDay, b.LeaveDays), remaining)
	b.SickDeduction, remaining = capAt(perDay(rates.SickPerDay, b.SickDays), remaining)
	b.AbsenceDeduction, _ = capAt(perDay(rates.AbsencePerDay, b.AbsentDays), remaining)

	total, err := TotalSalary(b.BaseSalary, b.Incentive, b.LeaveDeduction, b.SickDeduction, b.AbsenceDeduction)
	if err != nil {
		return Breakdown{}, err
	}
	b.TotalSalary = total
	return b, nil
}

// TotalSalary = base + incentive - leave - sick - absence; hasil negatif ditolak.
func TotalSalary(base, incentive, leave, sick, absence decimal.Decimal) (decimal.Decimal, error) {
	for _, v := range []decimal.Decimal{base, incentive, leave, sick, absence} {
		if v.IsNegative() {
			return decimal.Zero, fmt.Errorf("negative payroll component %s: %w", v, constants.ErrInvalidAmount)
		}
	}
	total := base.Add(incentive).Sub(leave).Sub(sick).Sub(absence)
	if total.IsNegative() {
		return decimal.Zero, fmt.Errorf("total salary %s below zero: %w", total, constants.ErrInvalidAmount)
	}
	return total, nil
}

func perDay(rate decimal.Decimal, days int) decimal.Decimal {
	return money.Rupiah(rate.Mul(decimal.NewFromInt(int64(days))))
}

func capAt(v, limit decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if v.GreaterThan(limit) {
		v = limit
	}
	return v, limit.Sub(v)
}

func applyBreakdown(p *model.PayrollRecordModel, b Breakdown) {
	p.PayrollTotalHoursTaught = b.TotalHours
	p.PayrollBaseSalary = b.BaseSalary
	p.PayrollIncentive = b.Incentive
	p.PayrollLeaveDeduction = b.LeaveDeduction
	p.PayrollSickDeduction = b.SickDeduction
	p.PayrollAbsenceDeduction = b.AbsenceDeduction
	p.PayrollTotalSalary = b.TotalSalary
}
