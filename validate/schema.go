package validate

import "github.com/artdubrouski/survey/model"

func required(field string) *Error {
	return errorf(Malformed, "%s: this field is required", field)
}

func blank(s *string) bool {
	return s != nil && *s == ""
}

// SurveyCreate checks the body of a new survey. Nested questions are checked
// one by one with QuestionCreate when they are written.
func SurveyCreate(in model.SurveyInput) error {
	if err := Fields(in); err != nil {
		return err
	}
	return surveyComplete(in)
}

// SurveyUpdate checks a change to an existing survey. A partial update only
// checks the fields it carries; a full one needs the same fields as a create.
// Either way the start date is frozen and the end date must stay after it.
func SurveyUpdate(existing model.Survey, in model.SurveyInput, partial bool) error {
	if err := Fields(in); err != nil {
		return err
	}
	if !partial {
		if err := surveyComplete(in); err != nil {
			return err
		}
	} else if blank(in.Title) {
		return required("title")
	}

	if in.StartDate != nil && !in.StartDate.Equal(existing.StartDate.Time) {
		return errorf(Policy, "start_date can't be changed")
	}
	if in.EndDate != nil && !in.EndDate.Equal(existing.EndDate.Time) &&
		!in.EndDate.After(existing.StartDate.Time) {
		return errorf(Policy, "end date should be greater than start date")
	}
	return nil
}

func surveyComplete(in model.SurveyInput) error {
	switch {
	case in.Title == nil || *in.Title == "":
		return required("title")
	case in.StartDate == nil:
		return required("start_date")
	case in.EndDate == nil:
		return required("end_date")
	case len(in.Questions) == 0:
		return errorf(Malformed, "Provide at least one question.")
	case !in.EndDate.After(in.StartDate.Time):
		return errorf(Policy, "end date should be greater than start date")
	}
	return nil
}

// QuestionCreate checks a new question and returns its type, text when the
// payload leaves it out.
func QuestionCreate(in model.QuestionInput) (model.QuestionType, error) {
	if err := Fields(in); err != nil {
		return "", err
	}
	if in.Title == nil || *in.Title == "" {
		return "", required("title")
	}
	qtype := model.Text
	if in.Type != nil {
		qtype = *in.Type
	}
	if !qtype.Valid() {
		return "", invalidType(qtype)
	}
	return qtype, OptionShape(qtype, len(in.Options))
}

// QuestionUpdate checks a change to an existing question against the state
// the question will be in afterwards, and returns the resulting type. An
// omitted option list keeps the stored options, except that switching to text
// drops them.
func QuestionUpdate(existing model.Question, in model.QuestionInput, partial bool) (model.QuestionType, error) {
	if err := Fields(in); err != nil {
		return "", err
	}
	if (!partial && in.Title == nil) || blank(in.Title) {
		return "", required("title")
	}

	qtype := existing.Type
	if in.Type != nil {
		qtype = *in.Type
	}
	if !qtype.Valid() {
		return "", invalidType(qtype)
	}

	count := len(existing.Options)
	switch {
	case in.Options != nil:
		count = len(in.Options)
	case qtype == model.Text:
		count = 0
	}
	return qtype, OptionShape(qtype, count)
}

// OptionShape enforces that text questions have no response options and
// select questions have at least two.
func OptionShape(qtype model.QuestionType, count int) error {
	switch {
	case qtype == model.Text && count > 0:
		return errorf(Schema, "Text response does not require response options")
	case qtype.Selectable() && count < 2:
		return errorf(Schema, "Provide at least two response options.")
	}
	return nil
}

func invalidType(t model.QuestionType) *Error {
	return errorf(Malformed, "question_type: %q is not a valid choice", string(t))
}
