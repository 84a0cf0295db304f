// Package exporttest builds course trees for export tests.
package exporttest

import (
	"fmt"
	"time"

	"github.com/yungbote/coursepack/internal/domain/export"
)

// Course returns a course with the given number of modules, each holding
// chaptersPerModule plain-text chapters.
func Course(modules, chaptersPerModule int) *export.CourseData {
	data := &export.CourseData{
		Course: export.Course{
			ID:          "c-101",
			Title:       "Intro to Go",
			Description: "A practical introduction.",
			Category:    "programming",
			Difficulty:  "beginner",
			Status:      "published",
			Instructor:  export.Instructor{ID: "u-7", Name: "Sam Rivera", Email: "sam@example.com"},
		},
	}
	for i := 1; i <= modules; i++ {
		m := export.Module{Title: fmt.Sprintf("Module %d", i), Description: fmt.Sprintf("About module %d", i)}
		for j := 1; j <= chaptersPerModule; j++ {
			m.Chapters = append(m.Chapters, export.Chapter{
				Title:           fmt.Sprintf("Chapter %d.%d", i, j),
				Content:         fmt.Sprintf("Body of chapter %d.%d", i, j),
				ContentType:     "text",
				DurationMinutes: 10,
			})
		}
		data.Modules = append(data.Modules, m)
	}
	return data
}

// Full returns a course that exercises every part of the tree.
func Full() *export.CourseData {
	data := Course(2, 2)
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	data.Assignments = []export.Assignment{{
		Title:        "Build a CLI",
		Description:  "Write a small tool.",
		Instructions: "Use the flag package.\n\nSubmit a zip.",
		DueDate:      &due,
		MaxPoints:    50,
	}}
	data.Quizzes = []export.Quiz{{
		ID:              "q-1",
		Title:           "Basics quiz",
		Description:     "Check your understanding.",
		PassingScore:    70,
		AllowedAttempts: 2,
		Questions: []export.Question{
			{Text: "Which keyword starts a goroutine?", Type: export.QuestionMultipleChoice, Options: []string{"go", "async", "spawn"}, CorrectAnswer: "go", Points: 2},
			{Text: "Slices are reference types.", Type: export.QuestionTrueFalse, CorrectAnswer: "true", Points: 1},
			{Text: "Name the zero value of a string.", Type: export.QuestionShortAnswer, CorrectAnswer: "empty string", Points: 1},
		},
	}}
	data.Discussions = []export.Discussion{{
		Title:      "Introduce yourself",
		Content:    "Say hi.",
		Pinned:     true,
		AuthorName: "Sam Rivera",
	}}
	return data
}
