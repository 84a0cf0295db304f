package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/coursepack/internal/domain/learning"
	"github.com/yungbote/coursepack/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *user.User {
	tb.Helper()
	u := &user.User{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, instructorID uuid.UUID, title string) *types.Course {
	tb.Helper()
	c := &types.Course{
		InstructorID: instructorID,
		Title:        title,
		Description:  "desc",
		Category:     "programming",
		Difficulty:   "beginner",
		Status:       "published",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int, title string) *types.CourseModule {
	tb.Helper()
	m := &types.CourseModule{CourseID: courseID, Position: position, Title: title}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedChapter(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, position int, title string) *types.Chapter {
	tb.Helper()
	ch := &types.Chapter{
		ModuleID:        moduleID,
		Position:        position,
		Title:           title,
		Content:         "<p>" + title + "</p>",
		ContentType:     "html",
		DurationMinutes: 5,
	}
	if err := tx.WithContext(ctx).Create(ch).Error; err != nil {
		tb.Fatalf("seed chapter: %v", err)
	}
	return ch
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, title string, passing int) *types.Quiz {
	tb.Helper()
	q := &types.Quiz{CourseID: courseID, Title: title, PassingScore: passing}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, quizID uuid.UUID, position int, qType, text string, options []string, answer string) *types.QuizQuestion {
	tb.Helper()
	raw, err := json.Marshal(options)
	if err != nil {
		tb.Fatalf("marshal options: %v", err)
	}
	q := &types.QuizQuestion{
		QuizID:        quizID,
		Position:      position,
		Type:          qType,
		Text:          text,
		Options:       datatypes.JSON(raw),
		CorrectAnswer: answer,
		Points:        1,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedDiscussion(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, authorID *uuid.UUID, title string, pinned bool) *types.Discussion {
	tb.Helper()
	d := &types.Discussion{CourseID: courseID, AuthorID: authorID, Title: title, Content: "body", Pinned: pinned}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed discussion: %v", err)
	}
	return d
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, title string) *types.Assignment {
	tb.Helper()
	a := &types.Assignment{CourseID: courseID, Title: title, Instructions: "do it", MaxPoints: 10}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}
