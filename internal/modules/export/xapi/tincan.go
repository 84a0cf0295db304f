package xapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/modules/export/markup"
)

const (
	descriptorFile = "tincan.xml"
	launchPage     = "index.html"
)

// Activity type IRIs from the ADL vocabulary.
const (
	TypeCourse      = "http://adlnet.gov/expapi/activities/course"
	TypeLesson      = "http://adlnet.gov/expapi/activities/lesson"
	TypeAssessment  = "http://adlnet.gov/expapi/activities/assessment"
	TypeInteraction = "http://adlnet.gov/expapi/activities/interaction"
)

func moduleActivityID(base string, n int) string {
	return base + "/module/" + strconv.Itoa(n)
}

func quizActivityID(base, quizDir string) string {
	return base + "/quiz/" + strings.TrimPrefix(quizDir, "quiz_")
}

func modulePagePath(n int) string {
	return "modules/module_" + strconv.Itoa(n) + "/index.html"
}

func quizPagePath(quizDir string) string {
	return "assessments/" + quizDir + "/index.html"
}

// BuildDescriptor renders tincan.xml: the course activity first, then one
// lesson per module in order, then one assessment per quiz.
func BuildDescriptor(data *export.CourseData, opts export.PackageOptions, quizDirs []string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\" ?>\n")
	b.WriteString("<tincan xmlns=\"http://projecttincan.com/tincan.xsd\">\n  <activities>\n")
	writeActivity(&b, opts.ActivityID, TypeCourse, opts.Title, data.Course.Description, launchPage, opts.Language)
	for i, m := range data.Modules {
		n := i + 1
		writeActivity(&b, moduleActivityID(opts.ActivityID, n), TypeLesson, m.Title, m.Description, modulePagePath(n), opts.Language)
	}
	for i, q := range data.Quizzes {
		writeActivity(&b, quizActivityID(opts.ActivityID, quizDirs[i]), TypeAssessment, q.Title, q.Description, quizPagePath(quizDirs[i]), opts.Language)
	}
	b.WriteString("  </activities>\n</tincan>\n")
	return b.String()
}

func writeActivity(b *strings.Builder, id, typ, name, description, launch, lang string) {
	x := markup.EscapeXML
	fmt.Fprintf(b, "    <activity id=\"%s\" type=\"%s\">\n", x(id), typ)
	fmt.Fprintf(b, "      <name lang=\"%s\">%s</name>\n", x(lang), x(name))
	fmt.Fprintf(b, "      <description lang=\"%s\">%s</description>\n", x(lang), x(description))
	fmt.Fprintf(b, "      <launch lang=\"%s\">%s</launch>\n", x(lang), x(launch))
	b.WriteString("    </activity>\n")
}
