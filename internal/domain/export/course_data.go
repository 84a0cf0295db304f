package export

import "time"

// CourseData is the denormalized course tree handed to the package emitters.
// It is built once per export request and never mutated afterwards.
type CourseData struct {
	Course      Course       `json:"course"`
	Modules     []Module     `json:"modules" validate:"min=1,dive"`
	Assignments []Assignment `json:"assignments"`
	Quizzes     []Quiz       `json:"quizzes" validate:"dive"`
	Discussions []Discussion `json:"discussions"`
}

type Instructor struct {
	ID    string `json:"id" validate:"notblank"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Course struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"notblank"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  string     `json:"difficulty"`
	Status      string     `json:"status"`
	Instructor  Instructor `json:"instructor"`
}

type Module struct {
	Title       string    `json:"title" validate:"notblank"`
	Description string    `json:"description"`
	Chapters    []Chapter `json:"chapters" validate:"min=1,dive"`
}

type Chapter struct {
	Title           string `json:"title" validate:"notblank"`
	Content         string `json:"content"`
	ContentType     string `json:"content_type"`
	DurationMinutes int    `json:"duration_minutes"`
}

type Assignment struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Instructions string     `json:"instructions"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	MaxPoints    int        `json:"max_points"`
}

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

type Question struct {
	Text          string       `json:"text" validate:"notblank"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
	Points        int          `json:"points"`
}

type Quiz struct {
	ID               string     `json:"id"`
	Title            string     `json:"title" validate:"notblank"`
	Description      string     `json:"description"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	AllowedAttempts  int        `json:"allowed_attempts"`
	PassingScore     int        `json:"passing_score"`
	Questions        []Question `json:"questions" validate:"dive"`
}

type Discussion struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Pinned      bool   `json:"pinned"`
	Locked      bool   `json:"locked"`
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
}

// TotalMinutes sums the chapter durations of a module.
func (m Module) TotalMinutes() int {
	total := 0
	for _, ch := range m.Chapters {
		if ch.DurationMinutes > 0 {
			total += ch.DurationMinutes
		}
	}
	return total
}

// TotalPoints sums the question points of a quiz, counting unscored questions as one point.
func (q Quiz) TotalPoints() int {
	total := 0
	for _, qq := range q.Questions {
		total += qq.Weight()
	}
	return total
}

func (q Question) Weight() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
