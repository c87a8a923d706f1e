package model

import (
	"bytes"
	"encoding/json"
)

// Answer is what a Response holds: a TextAnswer for text questions or a
// SelectAnswer for select questions, never both.
type Answer interface {
	answer()
}

type TextAnswer struct {
	Text string
}

type SelectAnswer struct {
	Options []ResponseOption
}

func (TextAnswer) answer()   {}
func (SelectAnswer) answer() {}

// OptionIDs returns the ids of the selected options.
func (a SelectAnswer) OptionIDs() []int64 {
	ids := make([]int64, len(a.Options))
	for i, o := range a.Options {
		ids[i] = o.ID
	}
	return ids
}

// Response is a stored answer to one question. QuestionID is nil once the
// question has been deleted.
type Response struct {
	ID            int64
	QuestionID    *int64
	QuestionTitle string
	Answer        Answer
}

type responseJSON struct {
	Question       *int64   `json:"question"`
	QuestionTitle  string   `json:"question_title"`
	ResponseText   string   `json:"response_text"`
	ResponseSelect []int64  `json:"response_select"`
	SelectTitles   []string `json:"response_select_titles"`
}

func (r Response) MarshalJSON() ([]byte, error) {
	out := responseJSON{
		Question:       r.QuestionID,
		QuestionTitle:  r.QuestionTitle,
		ResponseSelect: []int64{},
		SelectTitles:   []string{},
	}
	if r.QuestionID == nil {
		out.QuestionTitle = DeletedLabel
	}
	switch a := r.Answer.(type) {
	case TextAnswer:
		out.ResponseText = a.Text
	case SelectAnswer:
		for _, o := range a.Options {
			out.ResponseSelect = append(out.ResponseSelect, o.ID)
			out.SelectTitles = append(out.SelectTitles, o.Title)
		}
	}
	return json.Marshal(out)
}

// OptionIDs decodes either a single option id or a list of them.
type OptionIDs []int64

func (ids *OptionIDs) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*ids = nil
		return nil
	case len(b) > 0 && b[0] == '[':
		var list []int64
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*ids = list
		return nil
	}
	var id int64
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	*ids = OptionIDs{id}
	return nil
}
