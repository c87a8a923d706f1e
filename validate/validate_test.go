package validate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdubrouski/survey/model"
)

func ptr[T any](v T) *T { return &v }

// Survey 1: 10 text, 20 select (201, 202), 30 select multiple (301-303).
// Question 40 belongs to another survey and owns option 401.
func fixture() SubmissionState {
	q20, q30, q40 := int64(20), int64(30), int64(40)
	options := map[int64]model.ResponseOption{
		201: {ID: 201, Title: "yes", QuestionID: &q20},
		202: {ID: 202, Title: "no", QuestionID: &q20},
		301: {ID: 301, Title: "red", QuestionID: &q30},
		302: {ID: 302, Title: "green", QuestionID: &q30},
		303: {ID: 303, Title: "blue", QuestionID: &q30},
		401: {ID: 401, Title: "other", QuestionID: &q40},
	}
	return SubmissionState{
		Survey: model.Survey{
			ID:    1,
			Title: "Habits",
			Questions: []model.Question{
				{ID: 10, Title: "Name?", Type: model.Text},
				{ID: 20, Title: "Coffee?", Type: model.Select, Options: []model.ResponseOption{options[201], options[202]}},
				{ID: 30, Title: "Colours?", Type: model.SelectMultiple, Options: []model.ResponseOption{options[301], options[302], options[303]}},
			},
		},
		Options: options,
	}
}

func validSubmission() model.SubmissionInput {
	return model.SubmissionInput{
		Survey: ptr(int64(1)),
		Responses: []model.ResponseInput{
			{Question: ptr(int64(10)), ResponseText: ptr("Ann")},
			{Question: ptr(int64(20)), ResponseSelect: model.OptionIDs{201}},
			{Question: ptr(int64(30)), ResponseSelect: model.OptionIDs{301, 303}},
		},
	}
}

func question(st SubmissionState, id int64) *model.Question {
	for i := range st.Survey.Questions {
		if st.Survey.Questions[i].ID == id {
			return &st.Survey.Questions[i]
		}
	}
	return nil
}

func TestAnswerRules(t *testing.T) {
	st := fixture()

	tests := []struct {
		name     string
		in       model.ResponseInput
		question int64
		kind     Kind
		msg      string
	}{
		{
			name: "missing question reference",
			in:   model.ResponseInput{ResponseText: ptr("x")},
			kind: Malformed,
			msg:  "question ID not provided",
		},
		{
			name:     "select multiple with one option",
			in:       model.ResponseInput{Question: ptr(int64(30)), ResponseSelect: model.OptionIDs{301}},
			question: 30,
			kind:     Schema,
			msg:      `Multiple items should be selected for question 30 "Colours?"`,
		},
		{
			name:     "select with two options",
			in:       model.ResponseInput{Question: ptr(int64(20)), ResponseSelect: model.OptionIDs{201, 202}},
			question: 20,
			kind:     Schema,
			msg:      `Only one item should be selected for question 20 "Coffee?"`,
		},
		{
			name:     "text without text",
			in:       model.ResponseInput{Question: ptr(int64(10)), ResponseSelect: model.OptionIDs{201}},
			question: 10,
			kind:     Schema,
			msg:      "response_text field is empty",
		},
		{
			name:     "text with empty text",
			in:       model.ResponseInput{Question: ptr(int64(10)), ResponseText: ptr("")},
			question: 10,
			kind:     Schema,
			msg:      "response_text field is empty",
		},
		{
			name:     "select without selection",
			in:       model.ResponseInput{Question: ptr(int64(20)), ResponseText: ptr("yes")},
			question: 20,
			kind:     Schema,
			msg:      `response_select field is empty for question 20 "Coffee?"`,
		},
		{
			name:     "option of another question",
			in:       model.ResponseInput{Question: ptr(int64(20)), ResponseSelect: model.OptionIDs{401}},
			question: 20,
			kind:     Schema,
			msg:      `Response option 401 "other" is unrelated to the question 20 "Coffee?". Valid options are: 201 "yes", 202 "no"`,
		},
		{
			name:     "unknown option",
			in:       model.ResponseInput{Question: ptr(int64(20)), ResponseSelect: model.OptionIDs{999}},
			question: 20,
			kind:     Malformed,
			msg:      "invalid response option 999",
		},
		{
			name:     "same option twice",
			in:       model.ResponseInput{Question: ptr(int64(30)), ResponseSelect: model.OptionIDs{302, 302}},
			question: 30,
			kind:     Schema,
			msg:      "selected more than once",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Answer(tt.in, question(st, tt.question), st.Options)
			require.Error(t, err)
			assert.True(t, Is(err, tt.kind), "kind of %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAnswerUnknownQuestion(t *testing.T) {
	_, err := Answer(model.ResponseInput{Question: ptr(int64(99))}, nil, nil)
	assert.True(t, Is(err, Malformed))
}

func TestAnswerStripsTextFromSelect(t *testing.T) {
	st := fixture()

	resp, err := Answer(model.ResponseInput{
		Question:       ptr(int64(20)),
		ResponseText:   ptr("ignored"),
		ResponseSelect: model.OptionIDs{202},
	}, question(st, 20), st.Options)
	require.NoError(t, err)

	answer, ok := resp.Answer.(model.SelectAnswer)
	require.True(t, ok)
	assert.Equal(t, []int64{202}, answer.OptionIDs())
	assert.Equal(t, int64(20), *resp.QuestionID)
	assert.Equal(t, "Coffee?", resp.QuestionTitle)
}

func TestAnswerStripsSelectFromText(t *testing.T) {
	st := fixture()

	resp, err := Answer(model.ResponseInput{
		Question:       ptr(int64(10)),
		ResponseText:   ptr("Ann"),
		ResponseSelect: model.OptionIDs{401},
	}, question(st, 10), st.Options)
	require.NoError(t, err)
	assert.Equal(t, model.TextAnswer{Text: "Ann"}, resp.Answer)
}

func TestSubmissionAccepted(t *testing.T) {
	responses, err := Submission(validSubmission(), fixture())
	require.NoError(t, err)
	require.Len(t, responses, 3)

	assert.Equal(t, model.TextAnswer{Text: "Ann"}, responses[0].Answer)
	assert.Equal(t, []int64{201}, responses[1].Answer.(model.SelectAnswer).OptionIDs())
	assert.Equal(t, []int64{301, 303}, responses[2].Answer.(model.SelectAnswer).OptionIDs())
}

func TestSubmissionSelectScenario(t *testing.T) {
	in := validSubmission()
	in.Responses[1].ResponseSelect = model.OptionIDs{201, 202}
	_, err := Submission(in, fixture())
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "only one item should be selected")

	in.Responses[1].ResponseSelect = model.OptionIDs{202}
	_, err = Submission(in, fixture())
	assert.NoError(t, err)
}

func TestSubmissionSelectMultipleScenario(t *testing.T) {
	in := validSubmission()
	in.Responses[2].ResponseSelect = model.OptionIDs{302}
	_, err := Submission(in, fixture())
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "multiple items should be selected")

	in.Responses[2].ResponseSelect = model.OptionIDs{302, 303}
	_, err = Submission(in, fixture())
	assert.NoError(t, err)
}

func TestSubmissionRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.SubmissionInput, *SubmissionState)
		kind   Kind
		msg    string
	}{
		{
			name:   "missing survey",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) { in.Survey = nil },
			kind:   Malformed,
			msg:    "survey ID not provided",
		},
		{
			name:   "missing responses",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) { in.Responses = nil },
			kind:   Malformed,
			msg:    "responses: this field is required",
		},
		{
			name:   "missing question reference",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) { in.Responses[1].Question = nil },
			kind:   Malformed,
			msg:    "responses[1]: question ID not provided",
		},
		{
			name:   "already taken",
			mutate: func(_ *model.SubmissionInput, st *SubmissionState) { st.AlreadyTaken = true },
			kind:   Policy,
			msg:    `You've already taken survey "Habits" before`,
		},
		{
			name:   "too few answers",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) { in.Responses = in.Responses[:2] },
			kind:   Completeness,
			msg:    "You have not answered all the survey questions",
		},
		{
			name:   "empty answers",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) { in.Responses = []model.ResponseInput{} },
			kind:   Completeness,
			msg:    "You have not answered all the survey questions",
		},
		{
			name: "too many answers",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) {
				in.Responses = append(in.Responses, in.Responses[0])
			},
			kind: Completeness,
			msg:  "You have answered some questions more than once",
		},
		{
			name: "same question twice",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) {
				in.Responses[1] = in.Responses[0]
			},
			kind: Completeness,
			msg:  "You haven't answered questions {20}",
		},
		{
			name: "question of another survey",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) {
				in.Responses[0] = model.ResponseInput{Question: ptr(int64(40)), ResponseSelect: model.OptionIDs{401}}
			},
			kind: Completeness,
			msg:  "These questions are not related to the survey: {40}",
		},
		{
			name: "question deleted after survey creation",
			mutate: func(_ *model.SubmissionInput, st *SubmissionState) {
				st.Survey.Questions = st.Survey.Questions[1:]
			},
			kind: Completeness,
			msg:  "You have answered some questions more than once",
		},
		{
			name: "answer failure aborts submission",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) {
				in.Responses[0].ResponseText = ptr("")
			},
			kind: Schema,
			msg:  "response_text field is empty",
		},
		{
			name: "text too long",
			mutate: func(in *model.SubmissionInput, _ *SubmissionState) {
				in.Responses[0].ResponseText = ptr(strings.Repeat("x", 201))
			},
			kind: Malformed,
			msg:  "responses[0].response_text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, st := validSubmission(), fixture()
			tt.mutate(&in, &st)

			_, err := Submission(in, st)
			require.Error(t, err)
			assert.True(t, Is(err, tt.kind), "kind of %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func at(day int) *model.Timestamp {
	ts := model.NewTimestamp(time.Date(2026, 10, day, 0, 0, 0, 0, time.UTC))
	return &ts
}

func TestSurveyCreate(t *testing.T) {
	valid := func() model.SurveyInput {
		return model.SurveyInput{
			Title:     ptr("Habits"),
			StartDate: at(1),
			EndDate:   at(20),
			Questions: []model.QuestionInput{{Title: ptr("Name?")}},
		}
	}
	require.NoError(t, SurveyCreate(valid()))

	tests := []struct {
		name   string
		mutate func(*model.SurveyInput)
		kind   Kind
		msg    string
	}{
		{"no title", func(in *model.SurveyInput) { in.Title = nil }, Malformed, "title: this field is required"},
		{"blank title", func(in *model.SurveyInput) { in.Title = ptr("") }, Malformed, "title"},
		{"long title", func(in *model.SurveyInput) { in.Title = ptr(strings.Repeat("t", 301)) }, Malformed, "no more than 300"},
		{"no start", func(in *model.SurveyInput) { in.StartDate = nil }, Malformed, "start_date"},
		{"no end", func(in *model.SurveyInput) { in.EndDate = nil }, Malformed, "end_date"},
		{"no questions", func(in *model.SurveyInput) { in.Questions = nil }, Malformed, "Provide at least one question."},
		{"end before start", func(in *model.SurveyInput) { in.EndDate = at(1) }, Policy, "end date should be greater than start date"},
		{
			"long option title",
			func(in *model.SurveyInput) {
				in.Questions[0].Options = []model.OptionInput{{Title: strings.Repeat("o", 101)}}
			},
			Malformed,
			"questions[0].response_options[0].title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := SurveyCreate(in)
			require.Error(t, err)
			assert.True(t, Is(err, tt.kind), "kind of %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSurveyUpdate(t *testing.T) {
	existing := model.Survey{ID: 1, Title: "Habits", StartDate: *at(5), EndDate: *at(20)}

	assert.NoError(t, SurveyUpdate(existing, model.SurveyInput{EndDate: at(25)}, true))
	assert.NoError(t, SurveyUpdate(existing, model.SurveyInput{StartDate: at(5)}, true))
	assert.NoError(t, SurveyUpdate(existing, model.SurveyInput{}, true))

	err := SurveyUpdate(existing, model.SurveyInput{StartDate: at(6)}, true)
	assert.True(t, Is(err, Policy))
	assert.EqualError(t, err, "start_date can't be changed")

	err = SurveyUpdate(existing, model.SurveyInput{EndDate: at(5)}, true)
	assert.True(t, Is(err, Policy))
	assert.EqualError(t, err, "end date should be greater than start date")

	err = SurveyUpdate(existing, model.SurveyInput{Title: ptr("")}, true)
	assert.True(t, Is(err, Malformed))

	// a full update needs every field
	err = SurveyUpdate(existing, model.SurveyInput{Title: ptr("x")}, false)
	assert.True(t, Is(err, Malformed))

	full := model.SurveyInput{
		Title:     ptr("Habits 2"),
		StartDate: at(5),
		EndDate:   at(21),
		Questions: []model.QuestionInput{{Title: ptr("q")}},
	}
	assert.NoError(t, SurveyUpdate(existing, full, false))
	full.StartDate = at(4)
	assert.True(t, Is(SurveyUpdate(existing, full, false), Policy))
}

func TestQuestionCreate(t *testing.T) {
	qtype, err := QuestionCreate(model.QuestionInput{Title: ptr("Name?")})
	require.NoError(t, err)
	assert.Equal(t, model.Text, qtype)

	two := []model.OptionInput{{Title: "a"}, {Title: "b"}}
	qtype, err = QuestionCreate(model.QuestionInput{Title: ptr("Pick"), Type: ptr(model.SelectMultiple), Options: two})
	require.NoError(t, err)
	assert.Equal(t, model.SelectMultiple, qtype)

	_, err = QuestionCreate(model.QuestionInput{Title: ptr("Name?"), Options: two})
	assert.True(t, Is(err, Schema))
	assert.EqualError(t, err, "Text response does not require response options")

	_, err = QuestionCreate(model.QuestionInput{Title: ptr("Pick"), Type: ptr(model.Select), Options: two[:1]})
	assert.True(t, Is(err, Schema))
	assert.EqualError(t, err, "Provide at least two response options.")

	_, err = QuestionCreate(model.QuestionInput{Title: ptr("Pick"), Type: ptr(model.Select)})
	assert.True(t, Is(err, Schema))

	_, err = QuestionCreate(model.QuestionInput{Title: ptr("Pick"), Type: ptr(model.QuestionType("radio"))})
	assert.True(t, Is(err, Malformed))

	_, err = QuestionCreate(model.QuestionInput{})
	assert.True(t, Is(err, Malformed))

	_, err = QuestionCreate(model.QuestionInput{Title: ptr("Pick"), Type: ptr(model.Select), Options: []model.OptionInput{{}, {Title: "b"}}})
	assert.True(t, Is(err, Malformed))
}

func TestQuestionUpdateUsesEffectiveState(t *testing.T) {
	q := int64(7)
	selectQ := model.Question{ID: 7, Title: "Pick", Type: model.Select, Options: []model.ResponseOption{
		{ID: 1, Title: "a", QuestionID: &q},
		{ID: 2, Title: "b", QuestionID: &q},
	}}
	textQ := model.Question{ID: 8, Title: "Name?", Type: model.Text}

	// switching to text drops the stored options
	qtype, err := QuestionUpdate(selectQ, model.QuestionInput{Type: ptr(model.Text)}, true)
	require.NoError(t, err)
	assert.Equal(t, model.Text, qtype)

	// but not options sent along with the switch
	_, err = QuestionUpdate(selectQ, model.QuestionInput{Type: ptr(model.Text), Options: []model.OptionInput{{Title: "a"}}}, true)
	assert.True(t, Is(err, Schema))

	// stored options still count when the list is left out
	qtype, err = QuestionUpdate(selectQ, model.QuestionInput{Type: ptr(model.SelectMultiple)}, true)
	require.NoError(t, err)
	assert.Equal(t, model.SelectMultiple, qtype)

	_, err = QuestionUpdate(selectQ, model.QuestionInput{Options: []model.OptionInput{{Title: "only"}}}, true)
	assert.True(t, Is(err, Schema))

	_, err = QuestionUpdate(textQ, model.QuestionInput{Type: ptr(model.Select)}, true)
	assert.True(t, Is(err, Schema))

	_, err = QuestionUpdate(textQ, model.QuestionInput{Type: ptr(model.Select)}, false)
	assert.True(t, Is(err, Malformed), "full update without title")

	_, err = QuestionUpdate(textQ, model.QuestionInput{Title: ptr("Name")}, false)
	assert.NoError(t, err)
}

func TestErrorAt(t *testing.T) {
	err := errorf(Schema, "boom").At("questions[2]")
	assert.Equal(t, Schema, err.Kind)
	assert.Equal(t, "questions[2]: boom", err.Error())

	_, ok := KindOf(assert.AnError)
	assert.False(t, ok)
}
