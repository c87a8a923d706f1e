package model

// SurveyInput is the body of a survey create or update. Pointer fields and a
// nil Questions slice mean "absent", which only a partial update allows.
type SurveyInput struct {
	Title       *string         `json:"title" validate:"omitempty,max=300"`
	StartDate   *Timestamp      `json:"start_date"`
	EndDate     *Timestamp      `json:"end_date"`
	Description *string         `json:"description"`
	Questions   []QuestionInput `json:"questions" validate:"dive"`
}

// QuestionInput is a question nested in a survey payload or sent on its
// own. ID selects an existing question to update; Survey is only read when
// the question is written on its own.
type QuestionInput struct {
	ID      *int64        `json:"pk"`
	Survey  *int64        `json:"survey"`
	Title   *string       `json:"title"`
	Type    *QuestionType `json:"question_type"`
	Options []OptionInput `json:"response_options" validate:"dive"`
}

// Key returns the id of the existing question this entry refers to.
func (q QuestionInput) Key() (int64, bool) {
	if q.ID == nil {
		return 0, false
	}
	return *q.ID, true
}

type OptionInput struct {
	ID    *int64 `json:"id"`
	Title string `json:"title" validate:"required,max=100"`
}

func (o OptionInput) Key() (int64, bool) {
	if o.ID == nil {
		return 0, false
	}
	return *o.ID, true
}

// SubmissionInput is a respondent's answer sheet for one survey.
type SubmissionInput struct {
	Survey    *int64          `json:"survey"`
	Responses []ResponseInput `json:"responses" validate:"dive"`
}

type ResponseInput struct {
	Question       *int64    `json:"question"`
	ResponseText   *string   `json:"response_text" validate:"omitempty,max=200"`
	ResponseSelect OptionIDs `json:"response_select"`
}
