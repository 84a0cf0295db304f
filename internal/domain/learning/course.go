package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursepack/internal/domain/user"
)

type Course struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Instructor   *user.User `gorm:"constraint:OnDelete:RESTRICT;foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`

	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Category    string `gorm:"column:category;index" json:"category"`
	Difficulty  string `gorm:"column:difficulty" json:"difficulty"`
	Status      string `gorm:"column:status;not null;default:'draft';index" json:"status"`

	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Modules     []CourseModule `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
	Assignments []Assignment   `gorm:"foreignKey:CourseID" json:"assignments,omitempty"`
	Quizzes     []Quiz         `gorm:"foreignKey:CourseID" json:"quizzes,omitempty"`
	Discussions []Discussion   `gorm:"foreignKey:CourseID" json:"discussions,omitempty"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
