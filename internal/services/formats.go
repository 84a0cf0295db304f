package services

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursepack/internal/domain/export"
)

//go:embed formats.yaml
var formatsYAML []byte

type formatCatalog struct {
	Formats []export.FormatInfo `yaml:"formats"`
}

var (
	formatsOnce sync.Once
	formats     []export.FormatInfo
	formatsErr  error
)

// loadFormats parses the embedded catalog once and checks every entry names a
// format the orchestrator can dispatch. Callers get their own copy.
func loadFormats() ([]export.FormatInfo, error) {
	formatsOnce.Do(func() {
		formats, formatsErr = parseFormats(formatsYAML)
	})
	if formatsErr != nil {
		return nil, formatsErr
	}
	out := make([]export.FormatInfo, len(formats))
	for i, f := range formats {
		f.Features = append([]string(nil), f.Features...)
		out[i] = f
	}
	return out, nil
}

func parseFormats(raw []byte) ([]export.FormatInfo, error) {
	var cat formatCatalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse format catalog: %w", err)
	}
	if len(cat.Formats) == 0 {
		return nil, fmt.Errorf("format catalog is empty")
	}
	seen := map[export.Format]bool{}
	for _, f := range cat.Formats {
		if !f.ID.Valid() {
			return nil, fmt.Errorf("format catalog: unknown format %q", f.ID)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("format catalog: duplicate format %q", f.ID)
		}
		seen[f.ID] = true
	}
	return cat.Formats, nil
}
