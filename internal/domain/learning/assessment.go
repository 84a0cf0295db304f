package learning

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursepack/internal/domain/user"
)

type Assignment struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	Title        string     `gorm:"column:title;not null" json:"title"`
	Description  string     `gorm:"column:description;type:text" json:"description"`
	Instructions string     `gorm:"column:instructions;type:text" json:"instructions"`
	DueDate      *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	MaxPoints    int        `gorm:"column:max_points;not null;default:0" json:"max_points"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assignment) TableName() string { return "assignment" }

func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type Quiz struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID         uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Position         int       `gorm:"column:position;not null;default:0" json:"position"`
	Title            string    `gorm:"column:title;not null" json:"title"`
	Description      string    `gorm:"column:description;type:text" json:"description"`
	TimeLimitMinutes int       `gorm:"column:time_limit_minutes;not null;default:0" json:"time_limit_minutes"`
	AllowedAttempts  int       `gorm:"column:allowed_attempts;not null;default:0" json:"allowed_attempts"`
	PassingScore     int       `gorm:"column:passing_score;not null;default:0" json:"passing_score"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }

func (q *Quiz) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type QuizQuestion struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_quiz_question_position,priority:1" json:"quiz_id"`
	Position      int            `gorm:"column:position;not null;index:idx_quiz_question_position,priority:2" json:"position"`
	Type          string         `gorm:"column:type;not null" json:"type"`
	Text          string         `gorm:"column:text;type:text;not null" json:"text"`
	Options       datatypes.JSON `gorm:"column:options" json:"options"`
	CorrectAnswer string         `gorm:"column:correct_answer" json:"correct_answer"`
	Points        int            `gorm:"column:points;not null;default:1" json:"points"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

func (q *QuizQuestion) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// OptionList decodes Options, which holds a JSON array of strings.
func (q *QuizQuestion) OptionList() ([]string, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal(q.Options, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type Discussion struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	AuthorID *uuid.UUID `gorm:"type:uuid;index" json:"author_id,omitempty"`
	Author   *user.User `gorm:"constraint:OnDelete:SET NULL;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Title    string     `gorm:"column:title;not null" json:"title"`
	Content  string     `gorm:"column:content;type:text" json:"content"`
	Pinned   bool       `gorm:"column:pinned;not null;default:false" json:"pinned"`
	Locked   bool       `gorm:"column:locked;not null;default:false" json:"locked"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Discussion) TableName() string { return "discussion" }

func (d *Discussion) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
