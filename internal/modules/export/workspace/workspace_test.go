package workspace

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/platform/logger"
)

func newWorkspace(t *testing.T) (*Manager, *Workspace) {
	t.Helper()
	m := NewManager(t.TempDir(), logger.Nop())
	ws := m.New()
	if err := ws.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	t.Cleanup(ws.Cleanup)
	return m, ws
}

func TestEnsureDirectoriesUniquePerWorkspace(t *testing.T) {
	m := NewManager(t.TempDir(), logger.Nop())
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		ws := m.New()
		if err := ws.EnsureDirectories(); err != nil {
			t.Fatalf("EnsureDirectories: %v", err)
		}
		if seen[ws.Dir()] {
			t.Fatalf("duplicate workspace dir %s", ws.Dir())
		}
		seen[ws.Dir()] = true
		if filepath.Dir(ws.Dir()) != m.Root() {
			t.Fatalf("workspace %s not under root %s", ws.Dir(), m.Root())
		}
		ws.Cleanup()
	}
}

func TestEnsureDirectoriesUnwritableRoot(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	ws := NewManager(filepath.Join(blocker, "root"), logger.Nop()).New()
	err := ws.EnsureDirectories()
	var ioErr *export.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestWriteFileCreatesParentsAndOverwrites(t *testing.T) {
	_, ws := newWorkspace(t)
	if err := ws.WriteFile("content/module_1/index.html", "first"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := ws.WriteFile("content/module_1/index.html", "second"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(ws.Dir(), "content", "module_1", "index.html"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("want last write to win, got %q", got)
	}
}

func TestWriteFileRejectsEscapes(t *testing.T) {
	_, ws := newWorkspace(t)
	for _, rel := range []string{"../outside.txt", "/etc/passwd", "a/../../b"} {
		if err := ws.WriteFile(rel, "x"); err == nil {
			t.Fatalf("expected error for %q", rel)
		}
	}
}

func TestCopyFile(t *testing.T) {
	_, ws := newWorkspace(t)
	src := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(src, []byte{0x89, 0x50, 0x4e, 0x47}, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	if err := ws.CopyFile(src, "shared/img/logo.png"); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(ws.Dir(), "shared", "img", "logo.png"))
	if err != nil || len(got) != 4 {
		t.Fatalf("copied file: err=%v len=%d", err, len(got))
	}
	if err := ws.CopyFile(filepath.Join(t.TempDir(), "missing"), "x"); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCreateZipPackageRoundTrip(t *testing.T) {
	m, ws := newWorkspace(t)
	files := map[string]string{
		"imsmanifest.xml":             "<manifest/>",
		"content/index.html":          "<html>launch</html>",
		"content/module_1/index.html": "<html>m1 &amp; ünïcode</html>",
		"shared/scorm_api.js":         strings.Repeat("var a = 1;\n", 200),
	}
	for rel, content := range files {
		if err := ws.WriteFile(rel, content); err != nil {
			t.Fatalf("WriteFile %s: %v", rel, err)
		}
	}

	zipPath, err := ws.CreateZipPackage("Course_SCORM_1.2.zip")
	if err != nil {
		t.Fatalf("CreateZipPackage: %v", err)
	}
	if filepath.Dir(zipPath) != m.Root() {
		t.Fatalf("zip %s should be a sibling of the workspace", zipPath)
	}
	if strings.HasPrefix(zipPath, ws.Dir()) {
		t.Fatalf("zip placed inside workspace: %s", zipPath)
	}
	if PackageSize(zipPath) <= 0 {
		t.Fatal("expected non-empty archive")
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != len(files) {
		t.Fatalf("entries: want=%d got=%d", len(files), len(zr.File))
	}
	for _, f := range zr.File {
		want, ok := files[f.Name]
		if !ok {
			t.Fatalf("unexpected entry %q", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		if string(got) != want {
			t.Fatalf("entry %s differs", f.Name)
		}
	}
}

func TestCreateZipPackageConcurrentSameFilename(t *testing.T) {
	m := NewManager(t.TempDir(), logger.Nop())
	const n = 4
	paths := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ws := m.New()
			defer ws.Cleanup()
			if errs[i] = ws.EnsureDirectories(); errs[i] != nil {
				return
			}
			if errs[i] = ws.WriteFile("imsmanifest.xml", strings.Repeat("x", 64*(i+1))); errs[i] != nil {
				return
			}
			paths[i], errs[i] = ws.CreateZipPackage("Intro_to_Go_SCORM_1.2.zip")
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, p := range paths {
		if errs[i] != nil {
			t.Fatalf("job %d: %v", i, errs[i])
		}
		if seen[p] {
			t.Fatalf("two jobs share archive path %s", p)
		}
		seen[p] = true
		if !strings.HasSuffix(p, "_Intro_to_Go_SCORM_1.2.zip") {
			t.Fatalf("archive %s lost its display name", p)
		}
	}
	if err := os.Remove(paths[0]); err != nil {
		t.Fatalf("remove first archive: %v", err)
	}
	for _, p := range paths[1:] {
		if PackageSize(p) <= 0 {
			t.Fatalf("archive %s disappeared with its sibling", p)
		}
	}
}

func TestCleanupRemovesWorkspace(t *testing.T) {
	m := NewManager(t.TempDir(), logger.Nop())
	ws := m.New()
	if err := ws.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	dir := ws.Dir()
	if err := ws.WriteFile("a/b/c.txt", "x"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	ws.Cleanup()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("workspace still present: %v", err)
	}
	ws.Cleanup()
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Intro to Go":          "Intro_to_Go",
		"  Hello, World!  ":    "Hello_World",
		"a//b\\c":              "a_b_c",
		"already_safe-1.0.zip": "already_safe-1.0.zip",
		"___x___":              "x",
		"Café & Crème":         "Caf_Cr_me",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Fatalf("SanitizeFilename(%q) = %q want %q", in, got, want)
		}
	}
}

func TestPackageSizeMissing(t *testing.T) {
	if got := PackageSize(filepath.Join(t.TempDir(), "nope.zip")); got != 0 {
		t.Fatalf("want 0 got %d", got)
	}
}
