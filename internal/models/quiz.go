package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassScore is the pass threshold applied when a quiz does not
// configure its own. Both quiz grading and eligibility checks consult the
// quiz's effective threshold, never a second copy of this constant.
const DefaultPassScore = 70

type Quiz struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`

	// PassScore is the percentage required to pass. Zero means "use the
	// platform default" so that existing rows keep working.
	PassScore int `json:"pass_score" gorm:"not null;default:0" validate:"omitempty,min=0,max=100"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question `json:"questions" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// EffectivePassScore resolves the configured threshold, falling back to the
// platform default.
func (q *Quiz) EffectivePassScore() int {
	if q.PassScore > 0 {
		return q.PassScore
	}
	return DefaultPassScore
}

// Question holds the option texts and the index of the correct option. The
// correct index must never reach non-privileged readers; see Sanitized.
type Question struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	QuizID   uint `json:"quiz_id" gorm:"not null;index"`
	Position int  `json:"position" gorm:"not null"`

	Text         string         `json:"text" gorm:"not null;type:text" validate:"required,min=1,max=2000"`
	Options      datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	CorrectIndex int            `json:"correct_index" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// SanitizedQuestion is the projection served to quiz takers: option texts
// without the correct index.
type SanitizedQuestion struct {
	ID       uint           `json:"id"`
	QuizID   uint           `json:"quiz_id"`
	Position int            `json:"position"`
	Text     string         `json:"text"`
	Options  datatypes.JSON `json:"options"`
}

func (q *Question) Sanitized() SanitizedQuestion {
	return SanitizedQuestion{
		ID:       q.ID,
		QuizID:   q.QuizID,
		Position: q.Position,
		Text:     q.Text,
		Options:  q.Options,
	}
}
