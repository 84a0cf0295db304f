// Package workspace owns the per-export scratch directory: it creates an
// isolated directory under a shared root, offers scoped write/copy primitives,
// zips the tree and removes it again.
//
// A process crash between EnsureDirectories and Cleanup leaks the directory;
// the root is expected to be reaped externally.
package workspace

import (
	"archive/zip"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/coursepack/internal/domain/export"
	"github.com/yungbote/coursepack/internal/platform/logger"
)

// Manager hands out workspaces rooted at one shared temp directory.
type Manager struct {
	root string
	log  *logger.Logger
}

func NewManager(root string, log *logger.Logger) *Manager {
	if strings.TrimSpace(root) == "" {
		root = filepath.Join(os.TempDir(), "course-exports")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{root: root, log: log.With("service", "WorkspaceManager")}
}

func (m *Manager) Root() string { return m.root }

// New returns an unallocated workspace; call EnsureDirectories before writing.
func (m *Manager) New() *Workspace {
	return &Workspace{root: m.root, log: m.log}
}

type Workspace struct {
	root string
	dir  string
	log  *logger.Logger
}

// Dir is the absolute workspace directory, empty until EnsureDirectories succeeds.
func (w *Workspace) Dir() string { return w.dir }

func (w *Workspace) EnsureDirectories() error {
	if w.dir != "" {
		return nil
	}
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return &export.IOError{Op: "create temp root", Path: w.root, Err: err}
	}
	suffix, err := randomSuffix()
	if err != nil {
		return &export.IOError{Op: "generate workspace name", Err: err}
	}
	dir := filepath.Join(w.root, strconv.FormatInt(time.Now().UnixNano(), 10)+"_"+suffix)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return &export.IOError{Op: "create workspace", Path: dir, Err: err}
	}
	w.dir = dir
	w.log.Debug("Workspace created", "dir", dir)
	return nil
}

func randomSuffix() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// resolve maps a slash-separated relative path into the workspace and rejects escapes.
func (w *Workspace) resolve(rel string) (string, error) {
	if w.dir == "" {
		return "", &export.IOError{Op: "resolve", Path: rel, Err: fmt.Errorf("workspace not initialized")}
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &export.IOError{Op: "resolve", Path: rel, Err: fmt.Errorf("path escapes workspace")}
	}
	return filepath.Join(w.dir, clean), nil
}

// WriteFile writes content at rel, creating parent directories. A second write
// to the same path replaces the first.
func (w *Workspace) WriteFile(rel, content string) error {
	dst, err := w.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &export.IOError{Op: "create directory", Path: filepath.Dir(dst), Err: err}
	}
	if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
		return &export.IOError{Op: "write file", Path: rel, Err: err}
	}
	return nil
}

func (w *Workspace) CopyFile(srcAbs, destRel string) error {
	dst, err := w.resolve(destRel)
	if err != nil {
		return err
	}
	src, err := os.Open(srcAbs)
	if err != nil {
		return &export.IOError{Op: "open source", Path: srcAbs, Err: err}
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return &export.IOError{Op: "create directory", Path: filepath.Dir(dst), Err: err}
	}
	out, err := os.Create(dst)
	if err != nil {
		return &export.IOError{Op: "create file", Path: destRel, Err: err}
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return &export.IOError{Op: "copy file", Path: destRel, Err: err}
	}
	if err := out.Close(); err != nil {
		return &export.IOError{Op: "close file", Path: destRel, Err: err}
	}
	return nil
}

// CreateZipPackage archives every file of the workspace into
// <root>/<workspace-name>_<filename> and returns the archive's absolute path.
// The workspace prefix keeps concurrent exports of one course apart. Entry
// names are the slash-separated workspace-relative paths.
func (w *Workspace) CreateZipPackage(filename string) (string, error) {
	if w.dir == "" {
		return "", &export.IOError{Op: "create zip", Err: fmt.Errorf("workspace not initialized")}
	}
	zipPath := filepath.Join(w.root, filepath.Base(w.dir)+"_"+filepath.Base(filename))
	if err := w.writeZip(zipPath); err != nil {
		_ = os.Remove(zipPath)
		return "", err
	}
	w.log.Debug("Package archived", "path", zipPath)
	return zipPath, nil
}

func (w *Workspace) writeZip(zipPath string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return &export.IOError{Op: "create zip", Path: zipPath, Err: err}
	}
	zw := zip.NewWriter(f)

	walkErr := filepath.WalkDir(w.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.dir, p)
		if err != nil {
			return err
		}
		return addZipEntry(zw, p, filepath.ToSlash(rel))
	})
	if walkErr != nil {
		_ = zw.Close()
		_ = f.Close()
		return &export.IOError{Op: "write zip", Path: zipPath, Err: walkErr}
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return &export.IOError{Op: "finalize zip", Path: zipPath, Err: err}
	}
	if err := f.Close(); err != nil {
		return &export.IOError{Op: "close zip", Path: zipPath, Err: err}
	}
	return nil
}

func addZipEntry(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate
	out, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	return err
}

// Cleanup removes the workspace directory. Failures are logged, never returned.
func (w *Workspace) Cleanup() {
	if w.dir == "" {
		return
	}
	if err := os.RemoveAll(w.dir); err != nil {
		w.log.Warn("Workspace cleanup failed", "dir", w.dir, "error", err)
		return
	}
	w.log.Debug("Workspace removed", "dir", w.dir)
	w.dir = ""
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
)

// SanitizeFilename replaces everything outside [A-Za-z0-9._-] with '_',
// collapses runs of '_' and trims them from both ends.
func SanitizeFilename(name string) string {
	out := unsafeFilenameChars.ReplaceAllString(name, "_")
	out = repeatedUnderscores.ReplaceAllString(out, "_")
	return strings.Trim(out, "_")
}

// PackageSize returns the byte length of the file at path, or 0 if it cannot be stat'ed.
func PackageSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
