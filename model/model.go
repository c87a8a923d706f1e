// Package model holds the survey entities and the request payloads that
// create or change them.
package model

// Label shown in place of a title whose owner was deleted.
const DeletedLabel = "deleted"

type QuestionType string

const (
	Text           QuestionType = "text"
	Select         QuestionType = "select"
	SelectMultiple QuestionType = "select multiple"
)

func (t QuestionType) Valid() bool {
	switch t {
	case Text, Select, SelectMultiple:
		return true
	}
	return false
}

// Selectable reports whether answers to the question pick response options.
func (t QuestionType) Selectable() bool {
	return t == Select || t == SelectMultiple
}

type Survey struct {
	ID          int64      `json:"pk"`
	Title       string     `json:"title"`
	StartDate   Timestamp  `json:"start_date"`
	EndDate     Timestamp  `json:"end_date"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Active reports whether the survey still accepts visitors at the given time.
func (s Survey) Active(now Timestamp) bool {
	return now.Before(s.EndDate.Time)
}

type Question struct {
	ID          int64            `json:"pk"`
	SurveyID    *int64           `json:"survey"`
	SurveyTitle string           `json:"survey_title"`
	Position    int              `json:"-"`
	Title       string           `json:"title"`
	Type        QuestionType     `json:"question_type"`
	Options     []ResponseOption `json:"response_options"`
}

type ResponseOption struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	QuestionID *int64 `json:"question"`
}

type SurveyResponse struct {
	ID        int64      `json:"pk"`
	UserID    string     `json:"user_id"`
	SurveyID  *int64     `json:"survey"`
	Responses []Response `json:"responses"`
}
