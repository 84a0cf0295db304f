package export

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultOrganization    = "Course Export"
	DefaultLanguage        = "en-US"
	DefaultVersion         = "1.0"
	DefaultMasteryScore    = 80
	DefaultMaxTimeAllowed  = "PT2H"
	DefaultTimeLimitAction = "continue,no message"

	ScormVersion12   = "1.2"
	ScormVersion2004 = "2004"

	activityIDBase = "http://course.example.com/"
)

// TimeLimitActions is the SCORM vocabulary for adlcp:timelimitaction.
var TimeLimitActions = []string{
	"exit,message",
	"exit,no message",
	"continue,message",
	"continue,no message",
}

// PackageOptions configures a single export. It is never persisted.
type PackageOptions struct {
	Title           string `json:"title"`
	Organization    string `json:"organization"`
	Language        string `json:"language"`
	Version         string `json:"version"`
	IncludeTracking *bool  `json:"includeTracking,omitempty"`

	// SCORM
	ScormVersion    string `json:"scormVersion,omitempty"`
	MasteryScore    *int   `json:"masteryScore,omitempty"`
	MaxTimeAllowed  string `json:"maxTimeAllowed,omitempty"`
	TimeLimitAction string `json:"timeLimitAction,omitempty"`

	// xAPI
	Endpoint   string `json:"endpoint,omitempty"`
	AuthToken  string `json:"authToken,omitempty"`
	ActivityID string `json:"activityId,omitempty"`
}

// TrackingEnabled reports whether interaction tracking should be emitted; unset means on.
func (o PackageOptions) TrackingEnabled() bool {
	return o.IncludeTracking == nil || *o.IncludeTracking
}

// WithDefaults returns a copy of o with every empty field filled from the course
// or the package defaults.
func (o PackageOptions) WithDefaults(course Course) PackageOptions {
	out := o
	if strings.TrimSpace(out.Title) == "" {
		out.Title = course.Title
	}
	if strings.TrimSpace(out.Organization) == "" {
		out.Organization = DefaultOrganization
	}
	if strings.TrimSpace(out.Language) == "" {
		out.Language = DefaultLanguage
	}
	if strings.TrimSpace(out.Version) == "" {
		out.Version = DefaultVersion
	}
	if out.ScormVersion == "" {
		out.ScormVersion = ScormVersion12
	}
	if out.MasteryScore == nil {
		ms := DefaultMasteryScore
		out.MasteryScore = &ms
	}
	if strings.TrimSpace(out.MaxTimeAllowed) == "" {
		out.MaxTimeAllowed = DefaultMaxTimeAllowed
	}
	if strings.TrimSpace(out.TimeLimitAction) == "" {
		out.TimeLimitAction = DefaultTimeLimitAction
	}
	if strings.TrimSpace(out.ActivityID) == "" {
		out.ActivityID = DefaultActivityID(course.ID)
	}
	out.ActivityID = strings.TrimRight(strings.TrimSpace(out.ActivityID), "/")
	return out
}

// DefaultActivityID synthesizes the xAPI activity IRI for a course, path-escaping
// the id. Courses without an id get a random one so the IRI is still unique.
func DefaultActivityID(courseID string) string {
	id := strings.TrimSpace(courseID)
	if id == "" {
		id = uuid.New().String()
	}
	return activityIDBase + url.PathEscape(id)
}
