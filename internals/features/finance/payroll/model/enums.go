package model

type AttendanceStatus string
type PayrollStatus string
type DisbursementStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceLeave   AttendanceStatus = "LEAVE"
	AttendanceSick    AttendanceStatus = "SICK"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

const (
	PayrollStatusDraft      PayrollStatus = "DRAFT"
	PayrollStatusProcessing PayrollStatus = "PROCESSING"
	PayrollStatusCompleted  PayrollStatus = "COMPLETED"
	PayrollStatusFailed     PayrollStatus = "FAILED"
)

const (
	DisbursementPending   DisbursementStatus = "PENDING"
	DisbursementCompleted DisbursementStatus = "COMPLETED"
	DisbursementFailed    DisbursementStatus = "FAILED"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceLeave, AttendanceSick, AttendanceAbsent:
		return true
	}
	return false
}

// Locked: selain DRAFT tidak boleh dihitung ulang
func (s PayrollStatus) Locked() bool { return s != PayrollStatusDraft }

func (s DisbursementStatus) Terminal() bool {
	return s == DisbursementCompleted || s == DisbursementFailed
}
