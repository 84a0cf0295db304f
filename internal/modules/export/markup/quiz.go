package markup

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/modules/export/workspace"
)

// QuizScoringJS computes a quiz score in the browser from the form and the
// embedded answer key. Both package formats inline it into their quiz pages.
//
//go:embed assets/quiz-scoring.js
var QuizScoringJS string

// QuizDirs returns one unique directory name per quiz, in input order.
func QuizDirs(quizzes []export.Quiz) []string {
	out := make([]string, len(quizzes))
	used := make(map[string]int, len(quizzes))
	for i, q := range quizzes {
		slug := workspace.SanitizeFilename(q.ID)
		if slug == "" {
			slug = strconv.Itoa(i + 1)
		}
		name := "quiz_" + slug
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			used[name] = 1
		}
		out[i] = name
	}
	return out
}

// QuizHeader renders the title block and rules of a quiz page.
func QuizHeader(q export.Quiz) string {
	var b strings.Builder
	b.WriteString("<header class=\"quiz-header\">\n")
	fmt.Fprintf(&b, "  <h1>%s</h1>\n", EscapeHTML(q.Title))
	if q.Description != "" {
		fmt.Fprintf(&b, "  <p class=\"quiz-description\">%s</p>\n", EscapeHTML(q.Description))
	}
	meta := []string{fmt.Sprintf("%d questions", len(q.Questions)), fmt.Sprintf("Passing score %d%%", q.PassingScore)}
	if q.TimeLimitMinutes > 0 {
		meta = append(meta, "Time limit "+FormatMinutes(q.TimeLimitMinutes))
	}
	if q.AllowedAttempts > 0 {
		meta = append(meta, fmt.Sprintf("%d attempts allowed", q.AllowedAttempts))
	}
	fmt.Fprintf(&b, "  <p class=\"quiz-meta\">%s</p>\n", strings.Join(meta, " &middot; "))
	b.WriteString("</header>\n")
	return b.String()
}

// QuizForm renders the answer controls for every question: a radio group for
// multiple choice, a True/False pair, a text field for short answers.
func QuizForm(q export.Quiz) string {
	var b strings.Builder
	b.WriteString("<form class=\"quiz-form\" id=\"quiz-form\" novalidate>\n")
	for i, qq := range q.Questions {
		name := "q_" + strconv.Itoa(i)
		fmt.Fprintf(&b, "  <fieldset class=\"question\" data-question=\"%d\">\n", i)
		fmt.Fprintf(&b, "    <legend><span class=\"question-number\">%d.</span> %s</legend>\n", i+1, EscapeHTML(qq.Text))
		fmt.Fprintf(&b, "    <p class=\"question-points\">%d pt</p>\n", qq.Weight())
		switch qq.Type {
		case export.QuestionMultipleChoice:
			for j, opt := range qq.Options {
				fmt.Fprintf(&b, "    <label class=\"option\"><input type=\"radio\" name=\"%s\" value=\"%d\"> %s</label>\n", name, j, EscapeHTML(opt))
			}
		case export.QuestionTrueFalse:
			fmt.Fprintf(&b, "    <label class=\"option\"><input type=\"radio\" name=\"%s\" value=\"true\"> True</label>\n", name)
			fmt.Fprintf(&b, "    <label class=\"option\"><input type=\"radio\" name=\"%s\" value=\"false\"> False</label>\n", name)
		default:
			fmt.Fprintf(&b, "    <input type=\"text\" class=\"short-answer\" name=\"%s\" autocomplete=\"off\">\n", name)
		}
		b.WriteString("  </fieldset>\n")
	}
	b.WriteString("  <button type=\"submit\" class=\"button\">Submit answers</button>\n")
	b.WriteString("</form>\n")
	b.WriteString("<div id=\"quiz-result\" class=\"quiz-result\" hidden></div>\n")
	return b.String()
}

type QuizKey struct {
	PassingScore int        `json:"passingScore"`
	TotalPoints  int        `json:"totalPoints"`
	Questions    []KeyEntry `json:"questions"`
}

type KeyEntry struct {
	Type   string `json:"type"`
	Answer string `json:"answer"`
	Points int    `json:"points"`
}

// AnswerKey normalizes each correct answer to the value the quiz form submits.
func AnswerKey(q export.Quiz) QuizKey {
	key := QuizKey{PassingScore: q.PassingScore, TotalPoints: q.TotalPoints()}
	key.Questions = make([]KeyEntry, 0, len(q.Questions))
	for _, qq := range q.Questions {
		entry := KeyEntry{Type: string(qq.Type), Points: qq.Weight()}
		switch qq.Type {
		case export.QuestionMultipleChoice:
			entry.Answer = choiceIndex(qq.Options, qq.CorrectAnswer)
		case export.QuestionTrueFalse:
			entry.Answer = boolAnswer(qq.CorrectAnswer)
		default:
			entry.Type = string(export.QuestionShortAnswer)
			entry.Answer = strings.ToLower(strings.TrimSpace(qq.CorrectAnswer))
		}
		key.Questions = append(key.Questions, entry)
	}
	return key
}

// AnswerKeyJS renders the key as a JavaScript assignment. encoding/json escapes
// <, > and & so the literal cannot close the surrounding script element.
func AnswerKeyJS(varName string, q export.Quiz) (string, error) {
	raw, err := json.Marshal(AnswerKey(q))
	if err != nil {
		return "", fmt.Errorf("marshal answer key: %w", err)
	}
	return fmt.Sprintf("var %s = %s;", varName, raw), nil
}

// choiceIndex resolves a correct answer given as option text, 0-based index or
// letter to the option's index. Unresolvable answers yield "".
func choiceIndex(options []string, answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), answer) {
			return strconv.Itoa(i)
		}
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 0 && n < len(options) {
		return strconv.Itoa(n)
	}
	if len(answer) == 1 {
		c := strings.ToUpper(answer)[0]
		if c >= 'A' && int(c-'A') < len(options) {
			return strconv.Itoa(int(c - 'A'))
		}
	}
	return ""
}

func boolAnswer(answer string) string {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "true", "t", "yes", "1":
		return "true"
	default:
		return "false"
	}
}
