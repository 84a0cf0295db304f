package xapi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursepack/internal/domain/export"
)

const (
	sampleStatementsFile = "xapi/sample-statements.json"
	verbBase             = "http://adlnet.gov/expapi/verbs/"
)

type Verb struct {
	ID      string            `json:"id"`
	Display map[string]string `json:"display"`
}

func NewVerb(name string) Verb {
	return Verb{ID: verbBase + name, Display: map[string]string{"en-US": name}}
}

type Account struct {
	HomePage string `json:"homePage"`
	Name     string `json:"name"`
}

type Agent struct {
	ObjectType string   `json:"objectType"`
	Name       string   `json:"name,omitempty"`
	Mbox       string   `json:"mbox,omitempty"`
	Account    *Account `json:"account,omitempty"`
}

type ActivityDefinition struct {
	Type string            `json:"type"`
	Name map[string]string `json:"name"`
}

type Activity struct {
	ObjectType string             `json:"objectType"`
	ID         string             `json:"id"`
	Definition ActivityDefinition `json:"definition"`
}

type Score struct {
	Scaled float64 `json:"scaled"`
	Raw    float64 `json:"raw"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type Result struct {
	Score      *Score `json:"score,omitempty"`
	Success    *bool  `json:"success,omitempty"`
	Completion *bool  `json:"completion,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

type ActivityRef struct {
	ID         string `json:"id"`
	ObjectType string `json:"objectType"`
}

type ContextActivities struct {
	Parent   []ActivityRef `json:"parent,omitempty"`
	Grouping []ActivityRef `json:"grouping,omitempty"`
}

type Context struct {
	Registration      string             `json:"registration"`
	Language          string             `json:"language,omitempty"`
	ContextActivities *ContextActivities `json:"contextActivities,omitempty"`
}

// Statement mirrors what xapi-wrapper.js posts to the LRS.
type Statement struct {
	ID        string   `json:"id"`
	Actor     Agent    `json:"actor"`
	Verb      Verb     `json:"verb"`
	Object    Activity `json:"object"`
	Result    *Result  `json:"result,omitempty"`
	Context   *Context `json:"context,omitempty"`
	Timestamp string   `json:"timestamp"`
}

func activity(id, typ, name, lang string) Activity {
	return Activity{ObjectType: "Activity", ID: id, Definition: ActivityDefinition{Type: typ, Name: map[string]string{lang: name}}}
}

// SampleStatements returns one example of each statement a learner session
// produces, so LRS administrators can check their ingestion before rollout.
func SampleStatements(data *export.CourseData, opts export.PackageOptions, quizDirs []string, now time.Time) []Statement {
	actor := Agent{ObjectType: "Agent", Name: "Sample Learner", Mbox: "mailto:learner@example.com"}
	registration := uuid.NewString()
	lang := opts.Language
	course := activity(opts.ActivityID, TypeCourse, opts.Title, lang)
	yes := true
	ts := now.UTC()

	var out []Statement
	add := func(verb string, obj Activity, res *Result, parent string) {
		ctx := &Context{Registration: registration, Language: lang}
		if parent != "" {
			ctx.ContextActivities = &ContextActivities{
				Parent:   []ActivityRef{{ID: parent, ObjectType: "Activity"}},
				Grouping: []ActivityRef{{ID: opts.ActivityID, ObjectType: "Activity"}},
			}
		}
		out = append(out, Statement{
			ID:        uuid.NewString(),
			Actor:     actor,
			Verb:      NewVerb(verb),
			Object:    obj,
			Result:    res,
			Context:   ctx,
			Timestamp: ts.Add(time.Duration(len(out)) * time.Minute).Format(time.RFC3339),
		})
	}

	add("launched", course, nil, "")
	if len(data.Modules) > 0 {
		m := data.Modules[0]
		lesson := activity(moduleActivityID(opts.ActivityID, 1), TypeLesson, m.Title, lang)
		add("experienced", lesson, nil, opts.ActivityID)
		if len(m.Chapters) > 0 {
			chapter := activity(lesson.ID+"/chapter/1", TypeInteraction, m.Chapters[0].Title, lang)
			add("interacted", chapter, nil, lesson.ID)
		}
		add("completed", lesson, &Result{Completion: &yes, Duration: "PT12M30S"}, opts.ActivityID)
	}
	if len(data.Quizzes) > 0 {
		q := data.Quizzes[0]
		assessment := activity(quizActivityID(opts.ActivityID, quizDirs[0]), TypeAssessment, q.Title, lang)
		add("attempted", assessment, nil, opts.ActivityID)
		add("passed", assessment, &Result{
			Score:      &Score{Scaled: 0.9, Raw: 90, Min: 0, Max: 100},
			Success:    &yes,
			Completion: &yes,
			Duration:   "PT5M0S",
		}, opts.ActivityID)
	}
	add("suspended", course, &Result{Duration: "PT20M0S"}, "")
	return out
}

func sampleStatementsJSON(statements []Statement) (string, error) {
	raw, err := json.MarshalIndent(statements, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sample statements: %w", err)
	}
	return string(raw) + "\n", nil
}
