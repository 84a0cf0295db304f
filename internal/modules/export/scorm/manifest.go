package scorm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/modules/export/markup"
	"github.com/yungbote/coursepack/internal/modules/export/workspace"
)

const (
	manifestFile = "imsmanifest.xml"

	sharedResourceID = "resource_shared"
	launchResourceID = "resource_launch"
)

type dialect struct {
	version       string
	schemaVersion string
	namespaces    string
	scormTypeAttr string
}

var (
	dialect12 = dialect{
		version:       export.ScormVersion12,
		schemaVersion: "1.2",
		namespaces: `xmlns="http://www.imsproject.org/xsd/imscp_rootv1p1p2"
          xmlns:adlcp="http://www.adlnet.org/xsd/adlcp_rootv1p2"
          xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
          xsi:schemaLocation="http://www.imsproject.org/xsd/imscp_rootv1p1p2 imscp_rootv1p1p2.xsd http://www.imsglobal.org/xsd/imsmd_rootv1p2p1 imsmd_rootv1p2p1.xsd http://www.adlnet.org/xsd/adlcp_rootv1p2 adlcp_rootv1p2.xsd"`,
		scormTypeAttr: "adlcp:scormtype",
	}
	dialect2004 = dialect{
		version:       export.ScormVersion2004,
		schemaVersion: "2004 4th Edition",
		namespaces: `xmlns="http://www.imsglobal.org/xsd/imscp_v1p1"
          xmlns:adlcp="http://www.adlnet.org/xsd/adlcp_v1p3"
          xmlns:imsss="http://www.imsglobal.org/xsd/imsss"
          xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
          xsi:schemaLocation="http://www.imsglobal.org/xsd/imscp_v1p1 imscp_v1p1.xsd http://www.adlnet.org/xsd/adlcp_v1p3 adlcp_v1p3.xsd http://www.imsglobal.org/xsd/imsss imsss_v1p0.xsd"`,
		scormTypeAttr: "adlcp:scormType",
	}
)

func dialectFor(version string) dialect {
	if version == export.ScormVersion2004 {
		return dialect2004
	}
	return dialect12
}

const sequencing2004 = `<imsss:sequencing>
          <imsss:controlMode choice="true" flow="true"/>
        </imsss:sequencing>`

func moduleItemID(n int) string { return "item_module_" + strconv.Itoa(n) }
func chapterItemID(module, chapter int) string {
	return fmt.Sprintf("item_module_%d_chapter_%d", module, chapter)
}
func moduleResourceID(n int) string { return "resource_module_" + strconv.Itoa(n) }
func quizItemID(n int) string       { return "item_quiz_" + strconv.Itoa(n) }
func quizResourceID(n int) string   { return "resource_quiz_" + strconv.Itoa(n) }

func moduleDir(n int) string { return "content/module_" + strconv.Itoa(n) }

func manifestIdentifier(course export.Course) string {
	id := workspace.SanitizeFilename(course.ID)
	if id == "" {
		id = "course"
	}
	return "MANIFEST_" + id
}

// BuildManifest renders imsmanifest.xml. Items follow Modules order, chapters
// nest under their module and reference the module resource with a fragment;
// quizzes follow the modules. Only leaf items carry an identifierref, and every
// identifierref has exactly one resource.
func BuildManifest(data *export.CourseData, opts export.PackageOptions, quizDirs []string) string {
	d := dialectFor(opts.ScormVersion)
	x := markup.EscapeXML

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<manifest identifier=\"%s\" version=\"%s\"\n          %s>\n", x(manifestIdentifier(data.Course)), x(opts.Version), d.namespaces)
	b.WriteString("  <metadata>\n    <schema>ADL SCORM</schema>\n")
	fmt.Fprintf(&b, "    <schemaversion>%s</schemaversion>\n  </metadata>\n", d.schemaVersion)

	b.WriteString("  <organizations default=\"ORG_1\">\n")
	b.WriteString("    <organization identifier=\"ORG_1\">\n")
	fmt.Fprintf(&b, "      <title>%s</title>\n", x(opts.Title))

	for i, m := range data.Modules {
		n := i + 1
		if len(m.Chapters) == 0 {
			fmt.Fprintf(&b, "      <item identifier=\"%s\" identifierref=\"%s\" isvisible=\"true\">\n", moduleItemID(n), moduleResourceID(n))
			fmt.Fprintf(&b, "        <title>%s</title>\n", x(m.Title))
			writeLeafControls(&b, d, opts, "        ")
			b.WriteString("      </item>\n")
			continue
		}
		fmt.Fprintf(&b, "      <item identifier=\"%s\" isvisible=\"true\">\n", moduleItemID(n))
		fmt.Fprintf(&b, "        <title>%s</title>\n", x(m.Title))
		for j, ch := range m.Chapters {
			c := j + 1
			fmt.Fprintf(&b, "        <item identifier=\"%s\" identifierref=\"%s\" isvisible=\"true\" parameters=\"#%s\">\n", chapterItemID(n, c), moduleResourceID(n), markup.ChapterAnchor(c))
			fmt.Fprintf(&b, "          <title>%s</title>\n", x(ch.Title))
			writeLeafControls(&b, d, opts, "          ")
			b.WriteString("        </item>\n")
		}
		if d.version == export.ScormVersion2004 {
			b.WriteString("        " + sequencing2004 + "\n")
		}
		b.WriteString("      </item>\n")
	}

	for i, q := range data.Quizzes {
		n := i + 1
		fmt.Fprintf(&b, "      <item identifier=\"%s\" identifierref=\"%s\" isvisible=\"true\">\n", quizItemID(n), quizResourceID(n))
		fmt.Fprintf(&b, "        <title>%s</title>\n", x(q.Title))
		if d.version == export.ScormVersion2004 {
			b.WriteString("        " + sequencing2004 + "\n")
		} else {
			fmt.Fprintf(&b, "        <adlcp:masteryscore>%d</adlcp:masteryscore>\n", q.PassingScore)
		}
		b.WriteString("      </item>\n")
	}

	if d.version == export.ScormVersion2004 {
		b.WriteString("      <imsss:sequencing>\n        <imsss:controlMode choice=\"true\" flow=\"true\"/>\n      </imsss:sequencing>\n")
	}
	b.WriteString("    </organization>\n  </organizations>\n")

	b.WriteString("  <resources>\n")
	for i := range data.Modules {
		n := i + 1
		dir := moduleDir(n)
		writeResource(&b, d, moduleResourceID(n), "sco", dir+"/index.html", []string{dir + "/index.html", dir + "/style.css"}, true)
	}
	for i := range data.Quizzes {
		href := "assessments/" + quizDirs[i] + "/index.html"
		writeResource(&b, d, quizResourceID(i+1), "sco", href, []string{href}, true)
	}
	writeResource(&b, d, launchResourceID, "asset", launchPage, []string{launchPage}, true)
	writeResource(&b, d, sharedResourceID, "asset", "", []string{apiScriptPath, commonCSSPath}, false)
	b.WriteString("  </resources>\n")
	b.WriteString("</manifest>\n")
	return b.String()
}

func writeResource(b *strings.Builder, d dialect, id, scormType, href string, files []string, dependsOnShared bool) {
	fmt.Fprintf(b, "    <resource identifier=\"%s\" type=\"webcontent\" %s=\"%s\"", id, d.scormTypeAttr, scormType)
	if href != "" {
		fmt.Fprintf(b, " href=\"%s\"", markup.EscapeXML(href))
	}
	b.WriteString(">\n")
	for _, f := range files {
		fmt.Fprintf(b, "      <file href=\"%s\"/>\n", markup.EscapeXML(f))
	}
	if dependsOnShared {
		fmt.Fprintf(b, "      <dependency identifierref=\"%s\"/>\n", sharedResourceID)
	}
	b.WriteString("    </resource>\n")
}

// writeLeafControls adds the 1.2 time and mastery elements to a launchable item.
func writeLeafControls(b *strings.Builder, d dialect, opts export.PackageOptions, indent string) {
	if d.version == export.ScormVersion2004 {
		return
	}
	x := markup.EscapeXML
	fmt.Fprintf(b, "%s<adlcp:maxtimeallowed>%s</adlcp:maxtimeallowed>\n", indent, x(opts.MaxTimeAllowed))
	fmt.Fprintf(b, "%s<adlcp:timelimitaction>%s</adlcp:timelimitaction>\n", indent, x(opts.TimeLimitAction))
	fmt.Fprintf(b, "%s<adlcp:masteryscore>%d</adlcp:masteryscore>\n", indent, masteryScore(opts))
}

func masteryScore(opts export.PackageOptions) int {
	if opts.MasteryScore == nil {
		return export.DefaultMasteryScore
	}
	return *opts.MasteryScore
}
