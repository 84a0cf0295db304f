package scorm

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/domain/export/exporttest"
	"github.com/yungbote/coursepack/internal/modules/export/workspace"
	"github.com/yungbote/coursepack/internal/platform/logger"
)

func newEmitter(t *testing.T) (*Emitter, string) {
	t.Helper()
	root := t.TempDir()
	return NewEmitter(workspace.NewManager(root, logger.Nop()), logger.Nop(), 2), root
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out[f.Name] = string(b)
	}
	return out
}

// onlyZips asserts root holds nothing but archives, i.e. no workspace survived.
func onlyZips(t *testing.T, root string) {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zip" {
			t.Fatalf("leftover workspace entry %q", e.Name())
		}
	}
}

type manifestNode struct {
	Name          string
	Identifier    string
	IdentifierRef string
	Parameters    string
	Title         string
	Children      []*manifestNode
}

type manifestSummary struct {
	Items     []*manifestNode // top-level items of the organization
	AllRefs   []string
	Resources map[string]int
}

func parseManifest(t *testing.T, doc string) manifestSummary {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	sum := manifestSummary{Resources: map[string]int{}}
	var stack []*manifestNode
	var inTitle bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("manifest is not well-formed: %v", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			attr := func(name string) string {
				for _, a := range el.Attr {
					if a.Name.Local == name {
						return a.Value
					}
				}
				return ""
			}
			switch el.Name.Local {
			case "item":
				n := &manifestNode{Name: "item", Identifier: attr("identifier"), IdentifierRef: attr("identifierref"), Parameters: attr("parameters")}
				if n.IdentifierRef != "" {
					sum.AllRefs = append(sum.AllRefs, n.IdentifierRef)
				}
				if len(stack) == 0 {
					sum.Items = append(sum.Items, n)
				} else {
					parent := stack[len(stack)-1]
					parent.Children = append(parent.Children, n)
				}
				stack = append(stack, n)
			case "resource":
				sum.Resources[attr("identifier")]++
			case "dependency":
				sum.AllRefs = append(sum.AllRefs, attr("identifierref"))
			case "title":
				inTitle = len(stack) > 0
			}
		case xml.CharData:
			if inTitle {
				stack[len(stack)-1].Title += string(el)
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "item":
				stack = stack[:len(stack)-1]
			case "title":
				inTitle = false
			}
		}
	}
	return sum
}

func TestCreatePackageScenarioA(t *testing.T) {
	em, root := newEmitter(t)
	data := exporttest.Course(1, 2)

	res := em.CreatePackage(context.Background(), data, export.PackageOptions{})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Filename != "Intro_to_Go_SCORM_1.2.zip" {
		t.Fatalf("unexpected filename %q", res.Filename)
	}
	if res.Size <= 0 {
		t.Fatalf("expected size, got %d", res.Size)
	}
	if filepath.Dir(res.PackagePath) != root {
		t.Fatalf("zip should sit in the workspace root, got %s", res.PackagePath)
	}

	files := readZip(t, res.PackagePath)
	for _, want := range []string{"imsmanifest.xml", "content/index.html", "content/module_1/index.html", "content/module_1/style.css", "shared/scorm_api.js", "shared/common.css"} {
		if _, ok := files[want]; !ok {
			t.Fatalf("zip missing %s; have %v", want, keys(files))
		}
	}

	m := parseManifest(t, files["imsmanifest.xml"])
	if len(m.Items) != 1 {
		t.Fatalf("expected 1 module item, got %d", len(m.Items))
	}
	if len(m.Items[0].Children) != 2 {
		t.Fatalf("expected 2 chapter items, got %d", len(m.Items[0].Children))
	}
	if m.Items[0].Children[1].Parameters != "#chapter_2" {
		t.Fatalf("unexpected chapter parameters %q", m.Items[0].Children[1].Parameters)
	}
	manifest := files["imsmanifest.xml"]
	for _, want := range []string{"<schemaversion>1.2</schemaversion>", `adlcp:scormtype="sco"`, "<adlcp:masteryscore>80</adlcp:masteryscore>", "<adlcp:maxtimeallowed>PT2H</adlcp:maxtimeallowed>"} {
		if !strings.Contains(manifest, want) {
			t.Fatalf("manifest missing %s", want)
		}
	}
	if !strings.Contains(files["content/module_1/index.html"], `window.SCORM_VERSION = "1.2";`) {
		t.Fatalf("module page does not pin the SCORM version")
	}
	onlyZips(t, root)
}

func TestManifestLinkageAndOrder(t *testing.T) {
	for _, shape := range [][2]int{{1, 1}, {3, 1}, {2, 5}, {7, 3}} {
		data := exporttest.Full()
		more := exporttest.Course(shape[0], shape[1])
		data.Modules = more.Modules
		// reverse so order preservation is not an accident of naming
		for i, j := 0, len(data.Modules)-1; i < j; i, j = i+1, j-1 {
			data.Modules[i], data.Modules[j] = data.Modules[j], data.Modules[i]
		}
		opts := export.PackageOptions{}.WithDefaults(data.Course)
		for _, version := range []string{export.ScormVersion12, export.ScormVersion2004} {
			opts.ScormVersion = version
			m := parseManifest(t, BuildManifest(data, opts, []string{"quiz_q-1"}))

			for _, ref := range m.AllRefs {
				if m.Resources[ref] != 1 {
					t.Fatalf("%s: ref %q resolves to %d resources", version, ref, m.Resources[ref])
				}
			}
			if len(m.Items) != len(data.Modules)+len(data.Quizzes) {
				t.Fatalf("%s: expected %d top-level items, got %d", version, len(data.Modules)+len(data.Quizzes), len(m.Items))
			}
			for i, mod := range data.Modules {
				if m.Items[i].Title != mod.Title {
					t.Fatalf("%s: item %d is %q, want %q", version, i, m.Items[i].Title, mod.Title)
				}
				for j, ch := range mod.Chapters {
					if m.Items[i].Children[j].Title != ch.Title {
						t.Fatalf("%s: chapter %d.%d is %q, want %q", version, i, j, m.Items[i].Children[j].Title, ch.Title)
					}
				}
			}
			if last := m.Items[len(m.Items)-1]; last.Title != "Basics quiz" {
				t.Fatalf("%s: quiz should follow modules, last item is %q", version, last.Title)
			}
		}
	}
}

func TestManifestOnlyLeavesReferenceResources(t *testing.T) {
	data := exporttest.Full()
	data.Modules = exporttest.Course(2, 3).Modules
	data.Modules = append(data.Modules, export.Module{Title: "Reading list"})
	for _, version := range []string{export.ScormVersion12, export.ScormVersion2004} {
		opts := export.PackageOptions{ScormVersion: version}.WithDefaults(data.Course)
		doc := BuildManifest(data, opts, []string{"quiz_q-1"})
		m := parseManifest(t, doc)

		var walk func(n *manifestNode)
		walk = func(n *manifestNode) {
			if len(n.Children) > 0 && n.IdentifierRef != "" {
				t.Fatalf("%s: item %s has children and identifierref %q", version, n.Identifier, n.IdentifierRef)
			}
			if len(n.Children) == 0 && n.IdentifierRef == "" {
				t.Fatalf("%s: leaf item %s is not launchable", version, n.Identifier)
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		for _, it := range m.Items {
			walk(it)
		}
		if m.Items[2].IdentifierRef != "resource_module_3" {
			t.Fatalf("%s: chapterless module should reference its resource, got %q", version, m.Items[2].IdentifierRef)
		}
		if version == export.ScormVersion12 {
			// 2 modules x 3 chapters, the chapterless module and the quiz
			if got := strings.Count(doc, "<adlcp:masteryscore>"); got != 8 {
				t.Fatalf("masteryscore on %d items, want 8", got)
			}
		}
	}
}

func TestManifest2004Dialect(t *testing.T) {
	data := exporttest.Full()
	opts := export.PackageOptions{ScormVersion: export.ScormVersion2004}.WithDefaults(data.Course)
	doc := BuildManifest(data, opts, []string{"quiz_q-1"})
	for _, want := range []string{
		"http://www.imsglobal.org/xsd/imscp_v1p1",
		"http://www.imsglobal.org/xsd/imsss",
		"<schemaversion>2004 4th Edition</schemaversion>",
		`adlcp:scormType="sco"`,
		`<imsss:controlMode choice="true" flow="true"/>`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("2004 manifest missing %s", want)
		}
	}
	if strings.Contains(doc, "adlcp:masteryscore") || strings.Contains(doc, "adlcp:scormtype=") {
		t.Fatalf("2004 manifest carries 1.2 elements")
	}
}

func TestManifestEscapesTitles(t *testing.T) {
	data := exporttest.Course(1, 1)
	data.Modules[0].Title = `Tom & Jerry's <"best">`
	data.Modules[0].Chapters[0].Title = "a<b"
	opts := export.PackageOptions{}.WithDefaults(data.Course)
	doc := BuildManifest(data, opts, nil)
	if !strings.Contains(doc, "<title>Tom &amp; Jerry&apos;s &lt;&quot;best&quot;&gt;</title>") {
		t.Fatalf("module title not escaped:\n%s", doc)
	}
	if strings.Contains(doc, "a<b") {
		t.Fatalf("chapter title not escaped")
	}
	m := parseManifest(t, doc)
	if m.Items[0].Title != `Tom & Jerry's <"best">` {
		t.Fatalf("escaped title does not round-trip: %q", m.Items[0].Title)
	}
}

func TestCreatePackageWithQuizAndSanitizedContent(t *testing.T) {
	em, root := newEmitter(t)
	data := exporttest.Full()
	data.Modules[0].Chapters[0].ContentType = "html"
	data.Modules[0].Chapters[0].Content = `<script>alert(1)</script><p onclick="x()">Hi</p>`
	tracking := false

	res := em.CreatePackage(context.Background(), data, export.PackageOptions{ScormVersion: export.ScormVersion2004, IncludeTracking: &tracking})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Filename != "Intro_to_Go_SCORM_2004.zip" {
		t.Fatalf("unexpected filename %q", res.Filename)
	}
	files := readZip(t, res.PackagePath)

	page := files["content/module_1/index.html"]
	body := page[strings.Index(page, "<body>"):]
	body = body[:strings.LastIndex(body, "<script>")]
	if strings.Contains(body, "<script") || strings.Contains(body, "onclick") {
		t.Fatalf("module content not sanitized:\n%s", body)
	}
	if !strings.Contains(body, "<p>Hi</p>") {
		t.Fatalf("sanitized content lost text:\n%s", body)
	}
	if !strings.Contains(page, "ScormPage.module({tracking: false});") {
		t.Fatalf("tracking flag not propagated")
	}

	quiz, ok := files["assessments/quiz_q-1/index.html"]
	if !ok {
		t.Fatalf("quiz page missing; have %v", keys(files))
	}
	for _, want := range []string{"var QUIZ_KEY = {", "QuizScoring = { score: score", "ScormPage.quiz(QUIZ_KEY"} {
		if !strings.Contains(quiz, want) {
			t.Fatalf("quiz page missing %s", want)
		}
	}
	launch := files["content/index.html"]
	for _, want := range []string{"Build a CLI", "Introduce yourself", "../assessments/quiz_q-1/index.html"} {
		if !strings.Contains(launch, want) {
			t.Fatalf("launch page missing %s", want)
		}
	}
	onlyZips(t, root)
}

func TestCreatePackageFailureCleansUp(t *testing.T) {
	root := t.TempDir()
	// a file where the root directory should be makes every workspace fail
	blocked := filepath.Join(root, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	em := NewEmitter(workspace.NewManager(blocked, logger.Nop()), logger.Nop(), 0)

	res := em.CreatePackage(context.Background(), exporttest.Course(1, 1), export.PackageOptions{})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if len(res.Errors) == 0 || res.Err == nil {
		t.Fatalf("failure should carry its cause: %+v", res)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Fatalf("unexpected leftovers: %v", entries)
	}
}

func TestCreatePackageCanceledContext(t *testing.T) {
	em, root := newEmitter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := em.CreatePackage(ctx, exporttest.Course(3, 1), export.PackageOptions{})
	if res.Success {
		t.Fatalf("expected failure on canceled context")
	}
	onlyZips(t, root)
	if entries, _ := os.ReadDir(root); len(entries) != 0 {
		t.Fatalf("no archive should be written: %v", entries)
	}
}

func TestZipName(t *testing.T) {
	if got := ZipName(export.PackageOptions{Title: "  ", ScormVersion: "1.2"}); got != "course_SCORM_1.2.zip" {
		t.Fatalf("got %q", got)
	}
	if got := ZipName(export.PackageOptions{Title: "Go: the basics!", ScormVersion: "2004"}); got != "Go_the_basics_SCORM_2004.zip" {
		t.Fatalf("got %q", got)
	}
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
