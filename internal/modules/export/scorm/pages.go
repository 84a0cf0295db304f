package scorm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/modules/export/markup"
)

const (
	launchPage    = "content/index.html"
	apiScriptPath = "shared/scorm_api.js"
	commonCSSPath = "shared/common.css"
)

func headScript(opts export.PackageOptions) string {
	return fmt.Sprintf("    window.SCORM_VERSION = %q;", opts.ScormVersion)
}

func renderLaunchPage(data *export.CourseData, opts export.PackageOptions, quizDirs []string) string {
	var body strings.Builder
	body.WriteString("<main>\n")
	body.WriteString(markup.CourseSummary(data.Course, opts.Title))

	body.WriteString("<section class=\"modules\">\n  <h2>Modules</h2>\n  <ol class=\"module-list\">\n")
	for i, m := range data.Modules {
		n := i + 1
		fmt.Fprintf(&body, "    <li><a href=\"module_%d/index.html\">%s</a>", n, markup.EscapeHTML(m.Title))
		if mins := m.TotalMinutes(); mins > 0 {
			fmt.Fprintf(&body, " <span class=\"module-meta\">%s</span>", markup.FormatMinutes(mins))
		}
		body.WriteString("</li>\n")
	}
	body.WriteString("  </ol>\n</section>\n")

	if len(data.Quizzes) > 0 {
		body.WriteString("<section class=\"quizzes\">\n  <h2>Assessments</h2>\n  <ul class=\"quiz-list\">\n")
		for i, q := range data.Quizzes {
			fmt.Fprintf(&body, "    <li><a href=\"../assessments/%s/index.html\">%s</a></li>\n", quizDirs[i], markup.EscapeHTML(q.Title))
		}
		body.WriteString("  </ul>\n</section>\n")
	}

	body.WriteString(markup.AssignmentList(data.Assignments))
	body.WriteString(markup.DiscussionList(data.Discussions))
	body.WriteString("</main>\n")

	return markup.Page{
		Lang:        opts.Language,
		Title:       opts.Title,
		Stylesheets: []string{"../" + commonCSSPath},
		Body:        body.String(),
	}.Render()
}

func renderModulePage(n, total int, m export.Module, opts export.PackageOptions) string {
	var body strings.Builder
	body.WriteString("<main>\n")
	body.WriteString(markup.ModuleHeader(n, m))
	body.WriteString(markup.ModuleChapters(m))

	body.WriteString("<nav class=\"page-nav\">\n")
	if n > 1 {
		fmt.Fprintf(&body, "  <a class=\"button\" href=\"../module_%d/index.html\">&larr; Previous</a>\n", n-1)
	} else {
		body.WriteString("  <a class=\"button\" href=\"../index.html\">&larr; Course overview</a>\n")
	}
	body.WriteString("  <button type=\"button\" id=\"complete-module\">Mark module complete</button>\n")
	if n < total {
		fmt.Fprintf(&body, "  <a class=\"button\" href=\"../module_%d/index.html\">Next &rarr;</a>\n", n+1)
	} else {
		body.WriteString("  <a class=\"button\" href=\"../index.html\">Finish &rarr;</a>\n")
	}
	body.WriteString("</nav>\n</main>\n")

	return markup.Page{
		Lang:        opts.Language,
		Title:       m.Title,
		Stylesheets: []string{"../../" + commonCSSPath, "style.css"},
		HeadScript:  headScript(opts),
		Scripts:     []string{"../../" + apiScriptPath},
		Body:        body.String(),
		FootScript:  "ScormPage.module({tracking: " + strconv.FormatBool(opts.TrackingEnabled()) + "});",
	}.Render()
}

// moduleStyle gives every module page its own accent so learners can tell
// modules apart when the LMS opens them in the same frame.
func moduleStyle(n int) string {
	hue := (210 + (n-1)*47) % 360
	return fmt.Sprintf(`:root { --accent: hsl(%d, 70%%, 42%%); }
.module-header { border-bottom: 3px solid var(--accent); }
.module-number { text-transform: uppercase; letter-spacing: 0.05em; color: var(--accent); }
.chapter h2 { color: var(--accent); }
`, hue)
}

func renderQuizPage(q export.Quiz, opts export.PackageOptions) (string, error) {
	keyJS, err := markup.AnswerKeyJS("QUIZ_KEY", q)
	if err != nil {
		return "", err
	}
	var body strings.Builder
	body.WriteString("<main>\n")
	body.WriteString(markup.QuizHeader(q))
	body.WriteString(markup.QuizForm(q))
	body.WriteString("<nav class=\"page-nav\">\n  <a class=\"button\" href=\"../../content/index.html\">&larr; Course overview</a>\n</nav>\n")
	body.WriteString("</main>\n")

	var foot strings.Builder
	foot.WriteString(keyJS)
	foot.WriteString("\n")
	foot.WriteString(markup.QuizScoringJS)
	foot.WriteString("\nScormPage.quiz(QUIZ_KEY, {tracking: " + strconv.FormatBool(opts.TrackingEnabled()) + "});")

	return markup.Page{
		Lang:        opts.Language,
		Title:       q.Title,
		Stylesheets: []string{"../../" + commonCSSPath},
		HeadScript:  headScript(opts),
		Scripts:     []string{"../../" + apiScriptPath},
		Body:        body.String(),
		FootScript:  foot.String(),
	}.Render(), nil
}
