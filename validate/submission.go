package validate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/artdubrouski/survey/model"
)

// SubmissionRefs rejects a submission that does not say which survey, or
// which question of each answer, it is about. It needs no stored state and
// runs before anything is loaded.
func SubmissionRefs(in model.SubmissionInput) error {
	if in.Survey == nil {
		return errorf(Malformed, "survey ID not provided")
	}
	if in.Responses == nil {
		return required("responses")
	}
	for i, r := range in.Responses {
		if r.Question == nil {
			return errorf(Malformed, "question ID not provided").At("responses[" + strconv.Itoa(i) + "]")
		}
	}
	return Fields(in)
}

// SubmissionState is what a submission is checked against, read in the same
// transaction that will store it.
type SubmissionState struct {
	// Survey with its current questions and their options.
	Survey model.Survey
	// AlreadyTaken is set when the respondent has a stored submission for
	// Survey.
	AlreadyTaken bool
	// Options resolves every option id the submission selects.
	Options map[int64]model.ResponseOption
}

// Submission checks a full answer sheet and returns the normalized responses
// in submission order.
func Submission(in model.SubmissionInput, st SubmissionState) ([]model.Response, error) {
	if err := SubmissionRefs(in); err != nil {
		return nil, err
	}
	if st.AlreadyTaken {
		return nil, errorf(Policy, "You've already taken survey %q before", st.Survey.Title)
	}

	answered, owned := len(in.Responses), len(st.Survey.Questions)
	switch {
	case answered < owned:
		return nil, errorf(Completeness, "You have not answered all the survey questions")
	case answered > owned:
		return nil, errorf(Completeness, "You have answered some questions more than once")
	}

	questions := make(map[int64]*model.Question, owned)
	for i := range st.Survey.Questions {
		q := &st.Survey.Questions[i]
		questions[q.ID] = q
	}
	refs := make(map[int64]bool, answered)
	var unrelated []int64
	for _, r := range in.Responses {
		id := *r.Question
		if _, ok := questions[id]; !ok && !refs[id] {
			unrelated = append(unrelated, id)
		}
		refs[id] = true
	}
	if len(unrelated) > 0 {
		return nil, errorf(Completeness, "These questions are not related to the survey: %s", joinIDs(unrelated))
	}
	var missing []int64
	for _, q := range st.Survey.Questions {
		if !refs[q.ID] {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return nil, errorf(Completeness, "You haven't answered questions %s", joinIDs(missing))
	}

	responses := make([]model.Response, 0, answered)
	for _, r := range in.Responses {
		resp, err := Answer(r, questions[*r.Question], st.Options)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func joinIDs(ids []int64) string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
