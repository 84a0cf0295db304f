package export

type Format string

const (
	FormatSCORM12   Format = "scorm12"
	FormatSCORM2004 Format = "scorm2004"
	FormatXAPI      Format = "xapi"
)

func (f Format) Valid() bool {
	switch f {
	case FormatSCORM12, FormatSCORM2004, FormatXAPI:
		return true
	default:
		return false
	}
}

func (f Format) IsSCORM() bool {
	return f == FormatSCORM12 || f == FormatSCORM2004
}

// ScormVersion maps a SCORM format to the dialect version injected into the options.
func (f Format) ScormVersion() string {
	if f == FormatSCORM2004 {
		return ScormVersion2004
	}
	return ScormVersion12
}

// Request is an export request as received from the HTTP boundary.
type Request struct {
	Format  Format         `json:"format"`
	Options PackageOptions `json:"options"`
}

// FormatInfo describes one supported format for the format picker.
type FormatInfo struct {
	ID          Format   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Features    []string `json:"features" yaml:"features"`
}
