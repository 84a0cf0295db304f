package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseModule struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index:idx_course_module_position,priority:1" json:"course_id"`
	Position    int       `gorm:"column:position;not null;index:idx_course_module_position,priority:2" json:"position"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`

	Chapters []Chapter `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseModule) TableName() string { return "course_module" }

func (m *CourseModule) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Chapter struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID        uuid.UUID `gorm:"type:uuid;not null;index:idx_chapter_position,priority:1" json:"module_id"`
	Position        int       `gorm:"column:position;not null;index:idx_chapter_position,priority:2" json:"position"`
	Title           string    `gorm:"column:title;not null" json:"title"`
	Content         string    `gorm:"column:content;type:text" json:"content"`
	ContentType     string    `gorm:"column:content_type;not null;default:'html'" json:"content_type"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Chapter) TableName() string { return "course_chapter" }

func (c *Chapter) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
