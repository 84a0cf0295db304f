package xapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/modules/export/markup"
)

const (
	tincanScriptPath  = "shared/tincan-min.js"
	wrapperScriptPath = "shared/xapi-wrapper.js"
	commonCSSPath     = "shared/common.css"
)

// LaunchConfig is embedded into every page as window.XAPI_CONFIG.
type LaunchConfig struct {
	ActivityID   string `json:"activityId"`
	Endpoint     string `json:"endpoint"`
	Auth         string `json:"auth"`
	CourseTitle  string `json:"courseTitle"`
	TotalModules int    `json:"totalModules"`
	Language     string `json:"language"`
	Tracking     bool   `json:"tracking"`
}

func newLaunchConfig(data *export.CourseData, opts export.PackageOptions) LaunchConfig {
	return LaunchConfig{
		ActivityID:   opts.ActivityID,
		Endpoint:     opts.Endpoint,
		Auth:         opts.AuthToken,
		CourseTitle:  opts.Title,
		TotalModules: len(data.Modules),
		Language:     opts.Language,
		Tracking:     opts.TrackingEnabled(),
	}
}

type pageInfo struct {
	Index int    `json:"index,omitempty"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// jsValue marshals v for inline use; encoding/json escapes <, > and & so the
// literal cannot terminate the script element.
func jsValue(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal launch script: %w", err)
	}
	return string(raw), nil
}

func configScript(cfg LaunchConfig) (string, error) {
	v, err := jsValue(cfg)
	if err != nil {
		return "", err
	}
	return "    window.XAPI_CONFIG = " + v + ";", nil
}

func progressBar() string {
	return `<div class="progress">
  <div class="progress-bar"><div class="progress-fill"></div></div>
  <p class="progress-label"></p>
</div>
`
}

func renderLaunchPage(data *export.CourseData, opts export.PackageOptions, cfg LaunchConfig, quizDirs []string) (string, error) {
	head, err := configScript(cfg)
	if err != nil {
		return "", err
	}
	var body strings.Builder
	body.WriteString("<main>\n")
	body.WriteString(markup.CourseSummary(data.Course, opts.Title))
	body.WriteString(progressBar())

	body.WriteString("<section class=\"modules\">\n  <h2>Modules</h2>\n  <ol class=\"module-list\">\n")
	for i, m := range data.Modules {
		n := i + 1
		fmt.Fprintf(&body, "    <li><a href=\"%s\">%s</a>", modulePagePath(n), markup.EscapeHTML(m.Title))
		if mins := m.TotalMinutes(); mins > 0 {
			fmt.Fprintf(&body, " <span class=\"module-meta\">%s</span>", markup.FormatMinutes(mins))
		}
		body.WriteString("</li>\n")
	}
	body.WriteString("  </ol>\n</section>\n")

	if len(data.Quizzes) > 0 {
		body.WriteString("<section class=\"quizzes\">\n  <h2>Assessments</h2>\n  <ul class=\"quiz-list\">\n")
		for i, q := range data.Quizzes {
			fmt.Fprintf(&body, "    <li><a href=\"%s\">%s</a></li>\n", quizPagePath(quizDirs[i]), markup.EscapeHTML(q.Title))
		}
		body.WriteString("  </ul>\n</section>\n")
	}
	body.WriteString(markup.AssignmentList(data.Assignments))
	body.WriteString(markup.DiscussionList(data.Discussions))
	body.WriteString("</main>\n")

	return markup.Page{
		Lang:        opts.Language,
		Title:       opts.Title,
		Stylesheets: []string{commonCSSPath},
		HeadScript:  head,
		Scripts:     []string{tincanScriptPath, wrapperScriptPath},
		Body:        body.String(),
		FootScript:  "XAPIPage.course();",
	}.Render(), nil
}

func renderModulePage(n, total int, m export.Module, opts export.PackageOptions, cfg LaunchConfig) (string, error) {
	head, err := configScript(cfg)
	if err != nil {
		return "", err
	}
	info, err := jsValue(pageInfo{Index: n, ID: moduleActivityID(opts.ActivityID, n), Title: m.Title})
	if err != nil {
		return "", err
	}

	var body strings.Builder
	body.WriteString("<main>\n")
	body.WriteString(markup.ModuleHeader(n, m))
	body.WriteString(progressBar())
	body.WriteString(markup.ModuleChapters(m))
	body.WriteString("<nav class=\"page-nav\">\n")
	if n > 1 {
		fmt.Fprintf(&body, "  <a class=\"button\" href=\"../module_%d/index.html\">&larr; Previous</a>\n", n-1)
	} else {
		body.WriteString("  <a class=\"button\" href=\"../../index.html\">&larr; Course overview</a>\n")
	}
	body.WriteString("  <button type=\"button\" id=\"complete-module\">Mark module complete</button>\n")
	if n < total {
		fmt.Fprintf(&body, "  <a class=\"button\" href=\"../module_%d/index.html\">Next &rarr;</a>\n", n+1)
	} else {
		body.WriteString("  <a class=\"button\" href=\"../../index.html\">Finish &rarr;</a>\n")
	}
	body.WriteString("</nav>\n</main>\n")

	return markup.Page{
		Lang:        opts.Language,
		Title:       m.Title,
		Stylesheets: []string{"../../" + commonCSSPath},
		HeadScript:  head,
		Scripts:     []string{"../../" + tincanScriptPath, "../../" + wrapperScriptPath},
		Body:        body.String(),
		FootScript:  "XAPIPage.module(" + info + ");",
	}.Render(), nil
}

func renderQuizPage(q export.Quiz, quizDir string, opts export.PackageOptions, cfg LaunchConfig) (string, error) {
	head, err := configScript(cfg)
	if err != nil {
		return "", err
	}
	keyJS, err := markup.AnswerKeyJS("QUIZ_KEY", q)
	if err != nil {
		return "", err
	}
	info, err := jsValue(pageInfo{ID: quizActivityID(opts.ActivityID, quizDir), Title: q.Title})
	if err != nil {
		return "", err
	}

	var body strings.Builder
	body.WriteString("<main>\n")
	body.WriteString(markup.QuizHeader(q))
	body.WriteString(markup.QuizForm(q))
	body.WriteString("<nav class=\"page-nav\">\n  <a class=\"button\" href=\"../../index.html\">&larr; Course overview</a>\n</nav>\n")
	body.WriteString("</main>\n")

	foot := keyJS + "\n" + markup.QuizScoringJS + "\nXAPIPage.quiz(QUIZ_KEY, " + info + ");"
	return markup.Page{
		Lang:        opts.Language,
		Title:       q.Title,
		Stylesheets: []string{"../../" + commonCSSPath},
		HeadScript:  head,
		Scripts:     []string{"../../" + tincanScriptPath, "../../" + wrapperScriptPath},
		Body:        body.String(),
		FootScript:  foot,
	}.Render(), nil
}
