package markup

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/coursepack/internal/domain/export"
)

//go:embed assets/common.css
var CommonCSS string

// Page is a complete generated HTML document. Inline scripts are emitted
// verbatim and must already be safe.
type Page struct {
	Lang        string
	Title       string
	Stylesheets []string
	Scripts     []string
	HeadScript  string
	Body        string
	FootScript  string
}

func (p Page) Render() string {
	lang := p.Lang
	if lang == "" {
		lang = export.DefaultLanguage
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html lang=\"%s\">\n<head>\n", EscapeHTML(lang))
	b.WriteString("  <meta charset=\"UTF-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", EscapeHTML(p.Title))
	for _, href := range p.Stylesheets {
		fmt.Fprintf(&b, "  <link rel=\"stylesheet\" href=\"%s\">\n", EscapeHTML(href))
	}
	if p.HeadScript != "" {
		fmt.Fprintf(&b, "  <script>\n%s\n  </script>\n", p.HeadScript)
	}
	for _, src := range p.Scripts {
		fmt.Fprintf(&b, "  <script src=\"%s\"></script>\n", EscapeHTML(src))
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(p.Body)
	if p.FootScript != "" {
		fmt.Fprintf(&b, "<script>\n%s\n</script>\n", p.FootScript)
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// ChapterBody renders chapter content. Plain text is escaped paragraph by
// paragraph; anything else is treated as rich text and sanitized.
func ChapterBody(ch export.Chapter) string {
	switch strings.ToLower(strings.TrimSpace(ch.ContentType)) {
	case "text", "plain", "plain_text", "markdown":
		return textParagraphs(ch.Content)
	default:
		return SanitizeContent(ch.Content)
	}
}

func textParagraphs(s string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i := range lines {
			lines[i] = EscapeHTML(lines[i])
		}
		fmt.Fprintf(&b, "<p>%s</p>\n", strings.Join(lines, "<br>"))
	}
	return b.String()
}

// ChapterAnchor is the fragment id of the n-th (1-based) chapter on a module page.
func ChapterAnchor(n int) string {
	return "chapter_" + strconv.Itoa(n)
}

// ModuleChapters renders every chapter of m in order as a <section>.
func ModuleChapters(m export.Module) string {
	var b strings.Builder
	for i, ch := range m.Chapters {
		n := i + 1
		fmt.Fprintf(&b, "<section class=\"chapter\" id=\"%s\" data-chapter=\"%d\">\n", ChapterAnchor(n), n)
		fmt.Fprintf(&b, "  <h2>%s</h2>\n", EscapeHTML(ch.Title))
		if ch.DurationMinutes > 0 {
			fmt.Fprintf(&b, "  <p class=\"chapter-meta\">%s</p>\n", FormatMinutes(ch.DurationMinutes))
		}
		b.WriteString("  <div class=\"chapter-content\">\n")
		b.WriteString(ChapterBody(ch))
		b.WriteString("\n  </div>\n</section>\n")
	}
	return b.String()
}

// ModuleHeader renders the title block of a module page.
func ModuleHeader(n int, m export.Module) string {
	var b strings.Builder
	b.WriteString("<header class=\"module-header\">\n")
	fmt.Fprintf(&b, "  <p class=\"module-number\">Module %d</p>\n", n)
	fmt.Fprintf(&b, "  <h1>%s</h1>\n", EscapeHTML(m.Title))
	if m.Description != "" {
		fmt.Fprintf(&b, "  <p class=\"module-description\">%s</p>\n", EscapeHTML(m.Description))
	}
	if mins := m.TotalMinutes(); mins > 0 {
		fmt.Fprintf(&b, "  <p class=\"module-meta\">%d chapters &middot; %s</p>\n", len(m.Chapters), FormatMinutes(mins))
	}
	b.WriteString("</header>\n")
	return b.String()
}

func FormatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%d min", mins)
	}
	if mins%60 == 0 {
		return fmt.Sprintf("%d h", mins/60)
	}
	return fmt.Sprintf("%d h %d min", mins/60, mins%60)
}

// CourseSummary renders the course header shown on the launch page.
func CourseSummary(c export.Course, title string) string {
	var b strings.Builder
	b.WriteString("<header class=\"course-header\">\n")
	fmt.Fprintf(&b, "  <h1>%s</h1>\n", EscapeHTML(title))
	if c.Description != "" {
		fmt.Fprintf(&b, "  <p class=\"course-description\">%s</p>\n", EscapeHTML(c.Description))
	}
	var meta []string
	if c.Instructor.Name != "" {
		meta = append(meta, "Instructor: "+EscapeHTML(c.Instructor.Name))
	}
	if c.Category != "" {
		meta = append(meta, "Category: "+EscapeHTML(c.Category))
	}
	if c.Difficulty != "" {
		meta = append(meta, "Level: "+EscapeHTML(c.Difficulty))
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "  <p class=\"course-meta\">%s</p>\n", strings.Join(meta, " &middot; "))
	}
	b.WriteString("</header>\n")
	return b.String()
}

func AssignmentList(assignments []export.Assignment) string {
	if len(assignments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<section class=\"assignments\">\n  <h2>Assignments</h2>\n")
	for _, a := range assignments {
		b.WriteString("  <article class=\"assignment\">\n")
		fmt.Fprintf(&b, "    <h3>%s</h3>\n", EscapeHTML(a.Title))
		if a.Description != "" {
			fmt.Fprintf(&b, "    <p>%s</p>\n", EscapeHTML(a.Description))
		}
		if a.Instructions != "" {
			fmt.Fprintf(&b, "    <div class=\"instructions\">%s</div>\n", textParagraphs(a.Instructions))
		}
		var meta []string
		if a.DueDate != nil {
			meta = append(meta, "Due "+a.DueDate.UTC().Format("2006-01-02"))
		}
		if a.MaxPoints > 0 {
			meta = append(meta, fmt.Sprintf("%d points", a.MaxPoints))
		}
		if len(meta) > 0 {
			fmt.Fprintf(&b, "    <p class=\"assignment-meta\">%s</p>\n", strings.Join(meta, " &middot; "))
		}
		b.WriteString("  </article>\n")
	}
	b.WriteString("</section>\n")
	return b.String()
}

func DiscussionList(discussions []export.Discussion) string {
	if len(discussions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<section class=\"discussions\">\n  <h2>Discussions</h2>\n")
	for _, d := range discussions {
		b.WriteString("  <article class=\"discussion\">\n")
		title := EscapeHTML(d.Title)
		if d.Pinned {
			title = "&#128204; " + title
		}
		fmt.Fprintf(&b, "    <h3>%s</h3>\n", title)
		if d.Content != "" {
			b.WriteString(textParagraphs(d.Content))
		}
		var meta []string
		if d.AuthorName != "" {
			meta = append(meta, "Started by "+EscapeHTML(d.AuthorName))
		}
		if d.Locked {
			meta = append(meta, "Closed for replies")
		}
		if len(meta) > 0 {
			fmt.Fprintf(&b, "    <p class=\"discussion-meta\">%s</p>\n", strings.Join(meta, " &middot; "))
		}
		b.WriteString("  </article>\n")
	}
	b.WriteString("</section>\n")
	return b.String()
}
