package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/yungbote/coursepack/internal/domain/export"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag        = "notblank"
	isoDurationTag     = "iso8601_duration"
	timeLimitActionTag = "time_limit_action"

	supportedFormats = "required,oneof=" + strings.Join([]string{
		string(export.FormatSCORM12), string(export.FormatSCORM2004), string(export.FormatXAPI),
	}, " ")
)

// isoDuration accepts ISO 8601 durations such as PT2H, PT45M, P1DT30M or PT1H30M15.5S.
var isoDuration = regexp.MustCompile(`^P(?:\d+Y)?(?:\d+M)?(?:\d+W)?(?:\d+D)?(?:T(?:\d+H)?(?:\d+M)?(?:\d+(?:\.\d+)?S)?)?$`)

// scormOptions and xapiOptions are the option subsets checked per format.
type scormOptions struct {
	MasteryScore    *int   `validate:"omitnil,min=0,max=100"`
	MaxTimeAllowed  string `validate:"omitempty,iso8601_duration"`
	TimeLimitAction string `validate:"omitempty,time_limit_action"`
}

type xapiOptions struct {
	ActivityID string `validate:"omitempty,url"`
	Endpoint   string `validate:"omitempty,url"`
}

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(isoDurationTag, isoDurationValidation)
	_ = validate.RegisterValidation(timeLimitActionTag, timeLimitActionValidation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, isoDurationTag, timeLimitActionTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomValidationErrs)
	}
}

func translateCustomValidationErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case isoDurationTag:
		return fmt.Sprintf("%s %q is not an ISO 8601 duration", fe.Field(), fe.Value())
	case timeLimitActionTag:
		return fe.Field() + " must be one of: " + strings.Join(export.TimeLimitActions, "; ")
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func isoDurationValidation(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v != "P" && !strings.HasSuffix(v, "T") && isoDuration.MatchString(v)
}

func timeLimitActionValidation(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	for _, a := range export.TimeLimitActions {
		if v == a {
			return true
		}
	}
	return false
}

// ValidateCourse checks the course tree and returns every violation found.
func ValidateCourse(data *export.CourseData) []string {
	if data == nil {
		return []string{"Course data is required"}
	}
	return messages(validate.Struct(data))
}

// ValidateRequest checks the format and the options relevant to it.
func ValidateRequest(req export.Request) []string {
	if err := validate.Var(string(req.Format), supportedFormats); err != nil {
		return []string{(&export.UnsupportedFormatError{Format: string(req.Format)}).Error()}
	}
	opts := req.Options
	switch {
	case req.Format.IsSCORM():
		return messages(validate.Struct(scormOptions{
			MasteryScore:    opts.MasteryScore,
			MaxTimeAllowed:  strings.TrimSpace(opts.MaxTimeAllowed),
			TimeLimitAction: strings.TrimSpace(opts.TimeLimitAction),
		}))
	case req.Format == export.FormatXAPI:
		return messages(validate.Struct(xapiOptions{
			ActivityID: strings.TrimSpace(opts.ActivityID),
			Endpoint:   strings.TrimSpace(opts.Endpoint),
		}))
	}
	return nil
}

func messages(err error) []string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, message(fe))
	}
	return out
}

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// message renders a field error in the wording the export UI shows. Unknown
// fields fall back to the en translation.
func message(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	var idx []any
	for _, m := range indexPattern.FindAllStringSubmatch(ns, -1) {
		n, _ := strconv.Atoi(m[1])
		idx = append(idx, n+1)
	}
	switch indexPattern.ReplaceAllString(ns, "[]") {
	case "CourseData.Course.Title":
		return "Course title is required"
	case "CourseData.Course.Instructor.ID":
		return "Course instructor is required"
	case "CourseData.Modules":
		return "At least one module is required"
	case "CourseData.Modules[].Title":
		return fmt.Sprintf("Module %d: title is required", idx...)
	case "CourseData.Modules[].Chapters":
		return fmt.Sprintf("Module %d: at least one chapter is required", idx...)
	case "CourseData.Modules[].Chapters[].Title":
		return fmt.Sprintf("Module %d, chapter %d: title is required", idx...)
	case "CourseData.Quizzes[].Title":
		return fmt.Sprintf("Quiz %d: title is required", idx...)
	case "CourseData.Quizzes[].Questions[].Text":
		return fmt.Sprintf("Quiz %d, question %d: text is required", idx...)
	case "scormOptions.MasteryScore":
		return "Mastery score must be between 0 and 100"
	case "scormOptions.MaxTimeAllowed":
		return fmt.Sprintf("Max time allowed %q is not an ISO 8601 duration", fe.Value())
	case "scormOptions.TimeLimitAction":
		return "Time limit action must be one of: " + strings.Join(export.TimeLimitActions, "; ")
	case "xapiOptions.ActivityID":
		return "Activity ID must be a valid URL"
	case "xapiOptions.Endpoint":
		return "Endpoint must be a valid URL"
	}
	return fe.Translate(translator)
}
