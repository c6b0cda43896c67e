package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TeacherAttendanceModel: satu baris per guru per hari
type TeacherAttendanceModel struct {
	TeacherAttendanceID          uuid.UUID        `gorm:"column:teacher_attendance_id;type:uuid;default:gen_random_uuid();primaryKey" json:"teacher_attendance_id"`
	TeacherAttendanceTeacherID   uuid.UUID        `gorm:"column:teacher_attendance_teacher_id;type:uuid;not null;uniqueIndex:uq_teacher_attendance_day,priority:1" json:"teacher_attendance_teacher_id"`
	TeacherAttendanceDate        time.Time        `gorm:"column:teacher_attendance_date;type:date;not null;uniqueIndex:uq_teacher_attendance_day,priority:2" json:"teacher_attendance_date"`
	TeacherAttendanceStatus      AttendanceStatus `gorm:"column:teacher_attendance_status;type:varchar(10);not null" json:"teacher_attendance_status"`
	TeacherAttendanceHoursTaught decimal.Decimal  `gorm:"column:teacher_attendance_hours_taught;type:numeric(5,2);not null;default:0" json:"teacher_attendance_hours_taught"`
	TeacherAttendanceNote        *string          `gorm:"column:teacher_attendance_note;type:text" json:"teacher_attendance_note,omitempty"`

	TeacherAttendanceCreatedAt time.Time `gorm:"column:teacher_attendance_created_at;not null;autoCreateTime" json:"teacher_attendance_created_at"`
	TeacherAttendanceUpdatedAt time.Time `gorm:"column:teacher_attendance_updated_at;not null;autoUpdateTime" json:"teacher_attendance_updated_at"`
}

func (TeacherAttendanceModel) TableName() string {
	return "teacher_attendances"
}
