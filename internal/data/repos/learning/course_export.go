package learning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursepack/internal/domain/export"
	types "github.com/yungbote/coursepack/internal/domain/learning"
	pkgerrors "github.com/yungbote/coursepack/internal/pkg/errors"
	"github.com/yungbote/coursepack/internal/platform/logger"
)

// CourseExportRepo assembles the denormalized tree an export needs from the
// course tables.
type CourseExportRepo interface {
	LoadCourseData(ctx context.Context, courseID string) (*export.CourseData, error)
}

type courseExportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseExportRepo(db *gorm.DB, baseLog *logger.Logger) CourseExportRepo {
	repoLog := baseLog.With("repo", "CourseExportRepo")
	return &courseExportRepo{db: db, log: repoLog}
}

// LoadCourseData reads the course with its instructor, ordered modules and
// chapters, assignments, quizzes with ordered questions, and discussions.
// Unknown or malformed ids return an error wrapping errors.ErrNotFound.
func (r *courseExportRepo) LoadCourseData(ctx context.Context, courseID string) (*export.CourseData, error) {
	id, err := uuid.Parse(strings.TrimSpace(courseID))
	if err != nil {
		return nil, fmt.Errorf("course %q: %w", courseID, pkgerrors.ErrNotFound)
	}

	var course types.Course
	err = r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") }).
		Preload("Modules.Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") }).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC, created_at ASC") }).
		Preload("Quizzes", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") }).
		Preload("Quizzes.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, created_at ASC") }).
		Preload("Discussions", func(db *gorm.DB) *gorm.DB { return db.Order("pinned DESC, created_at ASC") }).
		Preload("Discussions.Author").
		Where("id = ?", id).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("course %s: %w", id, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", id, err)
	}

	data, err := toCourseData(&course)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Course loaded for export",
		"course_id", id,
		"modules", len(data.Modules),
		"quizzes", len(data.Quizzes),
	)
	return data, nil
}

func toCourseData(c *types.Course) (*export.CourseData, error) {
	data := &export.CourseData{
		Course: export.Course{
			ID:          c.ID.String(),
			Title:       c.Title,
			Description: c.Description,
			Category:    c.Category,
			Difficulty:  c.Difficulty,
			Status:      c.Status,
		},
	}
	if c.Instructor != nil {
		data.Course.Instructor = export.Instructor{
			ID:    c.Instructor.ID.String(),
			Name:  c.Instructor.DisplayName(),
			Email: c.Instructor.Email,
		}
	} else if c.InstructorID != uuid.Nil {
		data.Course.Instructor.ID = c.InstructorID.String()
	}

	for _, m := range c.Modules {
		mod := export.Module{Title: m.Title, Description: m.Description}
		for _, ch := range m.Chapters {
			mod.Chapters = append(mod.Chapters, export.Chapter{
				Title:           ch.Title,
				Content:         ch.Content,
				ContentType:     ch.ContentType,
				DurationMinutes: ch.DurationMinutes,
			})
		}
		data.Modules = append(data.Modules, mod)
	}

	for _, a := range c.Assignments {
		data.Assignments = append(data.Assignments, export.Assignment{
			Title:        a.Title,
			Description:  a.Description,
			Instructions: a.Instructions,
			DueDate:      a.DueDate,
			MaxPoints:    a.MaxPoints,
		})
	}

	for _, q := range c.Quizzes {
		quiz := export.Quiz{
			ID:               q.ID.String(),
			Title:            q.Title,
			Description:      q.Description,
			TimeLimitMinutes: q.TimeLimitMinutes,
			AllowedAttempts:  q.AllowedAttempts,
			PassingScore:     q.PassingScore,
		}
		for i := range q.Questions {
			qq := &q.Questions[i]
			options, err := qq.OptionList()
			if err != nil {
				return nil, fmt.Errorf("quiz %s question %s options: %w", q.ID, qq.ID, err)
			}
			quiz.Questions = append(quiz.Questions, export.Question{
				Text:          qq.Text,
				Type:          export.QuestionType(qq.Type),
				Options:       options,
				CorrectAnswer: qq.CorrectAnswer,
				Points:        qq.Points,
			})
		}
		data.Quizzes = append(data.Quizzes, quiz)
	}

	for _, d := range c.Discussions {
		disc := export.Discussion{
			Title:   d.Title,
			Content: d.Content,
			Pinned:  d.Pinned,
			Locked:  d.Locked,
		}
		if d.Author != nil {
			disc.AuthorName = d.Author.DisplayName()
			disc.AuthorEmail = d.Author.Email
		}
		data.Discussions = append(data.Discussions, disc)
	}
	return data, nil
}
