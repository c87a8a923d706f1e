package validate

import (
	"fmt"
	"strings"

	"github.com/artdubrouski/survey/model"
)

// Answer checks one submitted answer against the question it refers to and
// returns it as a Response ready to store. options resolves every option id
// the submission selects, whichever question owns it.
//
// Rules run in a fixed order and the first failure wins. A text answer keeps
// only its text and a select answer keeps only its options, so the stored
// Response never carries both.
func Answer(in model.ResponseInput, q *model.Question, options map[int64]model.ResponseOption) (model.Response, error) {
	if in.Question == nil {
		return model.Response{}, errorf(Malformed, "question ID not provided")
	}
	if q == nil {
		return model.Response{}, errorf(Malformed, "invalid question %d: object does not exist", *in.Question)
	}

	selected := len(in.ResponseSelect)
	switch {
	case q.Type == model.SelectMultiple && selected < 2:
		return model.Response{}, errorf(Schema, "Multiple items should be selected for question %s", label(q.ID, q.Title))
	case q.Type == model.Select && selected > 1:
		return model.Response{}, errorf(Schema, "Only one item should be selected for question %s", label(q.ID, q.Title))
	case q.Type == model.Text && (in.ResponseText == nil || *in.ResponseText == ""):
		return model.Response{}, errorf(Schema, "response_text field is empty for question %s", label(q.ID, q.Title))
	}
	if q.Type.Selectable() && selected == 0 {
		return model.Response{}, errorf(Schema, "response_select field is empty for question %s", label(q.ID, q.Title))
	}

	resp := model.Response{QuestionID: &q.ID, QuestionTitle: q.Title}
	if q.Type == model.Text {
		resp.Answer = model.TextAnswer{Text: *in.ResponseText}
		return resp, nil
	}

	answer := model.SelectAnswer{Options: make([]model.ResponseOption, 0, selected)}
	seen := make(map[int64]bool, selected)
	for _, id := range in.ResponseSelect {
		opt, ok := options[id]
		if !ok {
			return model.Response{}, errorf(Malformed, "invalid response option %d: object does not exist", id)
		}
		if opt.QuestionID == nil || *opt.QuestionID != q.ID {
			return model.Response{}, errorf(Schema,
				"Response option %s is unrelated to the question %s. Valid options are: %s",
				label(opt.ID, opt.Title), label(q.ID, q.Title), validOptions(q))
		}
		if seen[id] {
			return model.Response{}, errorf(Schema, "Response option %s is selected more than once", label(opt.ID, opt.Title))
		}
		seen[id] = true
		answer.Options = append(answer.Options, opt)
	}
	resp.Answer = answer
	return resp, nil
}

func label(id int64, title string) string {
	return fmt.Sprintf("%d %q", id, title)
}

func validOptions(q *model.Question) string {
	labels := make([]string, len(q.Options))
	for i, o := range q.Options {
		labels[i] = label(o.ID, o.Title)
	}
	return strings.Join(labels, ", ")
}
