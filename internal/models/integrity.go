package models

import "time"

// IntegrityRecord accumulates proctoring signals captured while a student
// sat an exam. The counters feed the integrity summary in reports.
type IntegrityRecord struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ExamID              uint      `gorm:"index:idx_integrity_exam_student,unique;not null" json:"exam_id"`
	StudentID           uint      `gorm:"index:idx_integrity_exam_student,unique;not null" json:"student_id"`
	TabChanges          int       `gorm:"default:0" json:"tab_changes"`
	MouseOuts           int       `gorm:"default:0" json:"mouse_outs"`
	FullscreenExits     int       `gorm:"default:0" json:"fullscreen_exits"`
	CopyAttempts        int       `gorm:"default:0" json:"copy_attempts"`
	PasteAttempts       int       `gorm:"default:0" json:"paste_attempts"`
	FocusChanges        int       `gorm:"default:0" json:"focus_changes"`
	ScreenConfiguration string    `gorm:"size:128;default:Unknown" json:"screen_configuration"`
	LastEvent           string    `gorm:"size:255" json:"last_event"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Violations sums every proctoring counter into a single violation count.
func (r IntegrityRecord) Violations() int {
	return r.TabChanges + r.MouseOuts + r.FullscreenExits + r.CopyAttempts + r.PasteAttempts + r.FocusChanges
}
