package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/artdubrouski/survey/database"
	"github.com/artdubrouski/survey/model"
	"github.com/artdubrouski/survey/validate"
)

const (
	kindText   = "text"
	kindSelect = "select"
)

// Submit validates and stores a respondent's answers to a survey.
//
// The survey's questions, the respondent's earlier submissions and the
// selected options are read in the transaction that writes the submission.
// The one-submission-per-respondent rule is such a read, not a unique index:
// two first submissions racing under a weaker isolation level than
// serializable can both be stored.
func (s *Store) Submit(ctx context.Context, userID string, in model.SubmissionInput) (sr model.SurveyResponse, err error) {
	if err = validate.SubmissionRefs(in); err != nil {
		return
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		survey, err := surveyByID(ctx, tx, *in.Survey)
		if errors.Is(err, ErrNotFound) {
			return &validate.Error{
				Kind:    validate.Malformed,
				Message: fmt.Sprintf("survey: invalid pk %d - object does not exist", *in.Survey),
			}
		}
		if err != nil {
			return err
		}

		taken, err := hasTaken(ctx, tx, survey.ID, userID)
		if err != nil {
			return err
		}
		options, err := answerOptions(ctx, tx, in, survey)
		if err != nil {
			return err
		}

		responses, err := validate.Submission(in, validate.SubmissionState{
			Survey:       survey,
			AlreadyTaken: taken,
			Options:      options,
		})
		if err != nil {
			return err
		}

		sr, err = insertSubmission(ctx, tx, userID, survey.ID, responses, s.now().Unix())
		return err
	})
	return
}

func hasTaken(ctx context.Context, q querier, surveyID int64, userID string) (bool, error) {
	var taken bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM survey_response
			WHERE survey_id = ?
				AND user_id = ?
		)`,
		surveyID,
		userID,
	).Scan(&taken)
	return taken, errors.Wrap(err, "query earlier submission")
}

// answerOptions resolves the option ids a submission selects. The options of
// the survey's questions are already loaded. Anything else is looked up only
// for answers to the survey's select questions, and only the first unknown id
// of each answer, since that id ends the answer's check either way. A
// submission whose answer count is off is rejected before any option is
// read, so nothing is looked up for it.
func answerOptions(ctx context.Context, q querier, in model.SubmissionInput, survey model.Survey) (map[int64]model.ResponseOption, error) {
	options := make(map[int64]model.ResponseOption)
	types := make(map[int64]model.QuestionType, len(survey.Questions))
	for _, qu := range survey.Questions {
		types[qu.ID] = qu.Type
		for _, o := range qu.Options {
			options[o.ID] = o
		}
	}
	if len(in.Responses) != len(survey.Questions) {
		return options, nil
	}

	var unknown []int64
	seen := make(map[int64]bool)
	for _, r := range in.Responses {
		if r.Question == nil || !types[*r.Question].Selectable() {
			continue
		}
		for _, id := range r.ResponseSelect {
			if _, ok := options[id]; ok {
				continue
			}
			if !seen[id] {
				seen[id] = true
				unknown = append(unknown, id)
			}
			break
		}
	}

	found, err := optionsByID(ctx, q, unknown)
	if err != nil {
		return nil, err
	}
	for id, o := range found {
		options[id] = o
	}
	return options, nil
}

func insertSubmission(ctx context.Context, tx *sql.Tx, userID string, surveyID int64, responses []model.Response, createdAt int64) (model.SurveyResponse, error) {
	sr := model.SurveyResponse{UserID: userID, SurveyID: &surveyID, Responses: responses}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO survey_response (user_id, survey_id, created_at) VALUES (?, ?, ?)
		RETURNING id`,
		userID,
		surveyID,
		createdAt,
	).Scan(&sr.ID)
	if err != nil {
		return sr, errors.Wrap(err, "insert survey response")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO response (survey_response_id, question_id, position, kind, response_text)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)
	if err != nil {
		return sr, errors.Wrap(err, "prepare response insert")
	}
	defer stmt.Close()

	for i := range sr.Responses {
		r := &sr.Responses[i]
		kind, text := kindText, ""
		switch a := r.Answer.(type) {
		case model.TextAnswer:
			text = a.Text
		case model.SelectAnswer:
			kind = kindSelect
		}
		err = stmt.QueryRowContext(ctx, sr.ID, r.QuestionID, i, kind, text).Scan(&r.ID)
		if err != nil {
			return sr, errors.Wrap(err, "insert response")
		}

		if a, ok := r.Answer.(model.SelectAnswer); ok {
			for _, o := range a.Options {
				_, err = tx.ExecContext(ctx, `
					INSERT INTO response_select (response_id, option_id) VALUES (?, ?)`,
					r.ID,
					o.ID,
				)
				if err != nil {
					return sr, errors.Wrap(err, "insert response selection")
				}
			}
		}
	}
	return sr, nil
}

// ListSurveyResponses returns every submission to a privileged caller and
// only the respondent's own submissions otherwise. An unknown respondent has
// none.
func (s *Store) ListSurveyResponses(ctx context.Context, privileged bool, userID string) ([]model.SurveyResponse, error) {
	query := `SELECT id, user_id, survey_id FROM survey_response`
	var args []any
	if !privileged {
		if userID == "" {
			return []model.SurveyResponse{}, nil
		}
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	return loadSurveyResponses(ctx, s.db, query+` ORDER BY id`, args...)
}

// GetSurveyResponse returns one submission under the ListSurveyResponses
// scoping rule.
func (s *Store) GetSurveyResponse(ctx context.Context, id int64, privileged bool, userID string) (model.SurveyResponse, error) {
	srs, err := loadSurveyResponses(ctx, s.db, `
		SELECT id, user_id, survey_id FROM survey_response WHERE id = ?`,
		id,
	)
	if err != nil {
		return model.SurveyResponse{}, err
	}
	if len(srs) == 0 || (!privileged && srs[0].UserID != userID) {
		return model.SurveyResponse{}, ErrNotFound
	}
	return srs[0], nil
}

func loadSurveyResponses(ctx context.Context, q querier, query string, args ...any) ([]model.SurveyResponse, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query survey responses")
	}
	defer rows.Close()

	srs := []model.SurveyResponse{}
	for rows.Next() {
		var sr model.SurveyResponse
		var surveyID sql.NullInt64
		if err = rows.Scan(&sr.ID, &sr.UserID, &surveyID); err != nil {
			return nil, errors.Wrap(err, "scan survey response")
		}
		sr.SurveyID = nullableID(surveyID)
		sr.Responses = []model.Response{}
		srs = append(srs, sr)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate survey responses")
	}
	rows.Close()

	if len(srs) == 0 {
		return srs, nil
	}
	ids := make([]int64, len(srs))
	index := make(map[int64]int, len(srs))
	for i, sr := range srs {
		ids[i] = sr.ID
		index[sr.ID] = i
	}
	responses, owners, err := loadResponses(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i, r := range responses {
		j := index[owners[i]]
		srs[j].Responses = append(srs[j].Responses, r)
	}
	return srs, nil
}

// loadResponses returns the responses of the given submissions with the
// submission id owning each one at the same index.
func loadResponses(ctx context.Context, q querier, surveyResponseIDs []int64) ([]model.Response, []int64, error) {
	var responses []model.Response
	var owners []int64
	err := inChunks(surveyResponseIDs, func(in string, args []any) error {
		rows, err := q.QueryContext(ctx, `
			SELECT r.id, r.survey_response_id, r.question_id, COALESCE(q.title, ''), r.kind, r.response_text
			FROM response r
			LEFT OUTER JOIN question q ON (q.id = r.question_id)
			WHERE r.survey_response_id IN `+in+`
			ORDER BY r.survey_response_id, r.position, r.id`,
			args...,
		)
		if err != nil {
			return errors.Wrap(err, "query responses")
		}
		defer rows.Close()

		for rows.Next() {
			var r model.Response
			var owner int64
			var questionID sql.NullInt64
			var kind, text string
			err = rows.Scan(&r.ID, &owner, &questionID, &r.QuestionTitle, &kind, &text)
			if err != nil {
				return errors.Wrap(err, "scan response")
			}
			r.QuestionID = nullableID(questionID)
			if kind == kindSelect {
				r.Answer = model.SelectAnswer{Options: []model.ResponseOption{}}
			} else {
				r.Answer = model.TextAnswer{Text: text}
			}
			responses = append(responses, r)
			owners = append(owners, owner)
		}
		return errors.Wrap(rows.Err(), "iterate responses")
	})
	if err != nil {
		return nil, nil, err
	}

	if len(responses) == 0 {
		return responses, owners, nil
	}
	var selectIDs []int64
	index := make(map[int64]int)
	for i, r := range responses {
		if _, ok := r.Answer.(model.SelectAnswer); ok {
			selectIDs = append(selectIDs, r.ID)
			index[r.ID] = i
		}
	}
	selections, err := selectionsByResponse(ctx, q, selectIDs)
	if err != nil {
		return nil, nil, err
	}
	for id, opts := range selections {
		responses[index[id]].Answer = model.SelectAnswer{Options: opts}
	}
	return responses, owners, nil
}

func selectionsByResponse(ctx context.Context, q querier, responseIDs []int64) (map[int64][]model.ResponseOption, error) {
	selections := make(map[int64][]model.ResponseOption)
	err := inChunks(responseIDs, func(in string, args []any) error {
		rows, err := q.QueryContext(ctx, `
			SELECT rs.response_id, o.id, o.title, o.question_id
			FROM response_select rs
			INNER JOIN response_option o ON (o.id = rs.option_id)
			WHERE rs.response_id IN `+in+`
			ORDER BY rs.response_id, o.position, o.id`,
			args...,
		)
		if err != nil {
			return errors.Wrap(err, "query selections")
		}
		defer rows.Close()

		for rows.Next() {
			var responseID int64
			var o model.ResponseOption
			var questionID sql.NullInt64
			if err = rows.Scan(&responseID, &o.ID, &o.Title, &questionID); err != nil {
				return errors.Wrap(err, "scan selection")
			}
			o.QuestionID = nullableID(questionID)
			selections[responseID] = append(selections[responseID], o)
		}
		return errors.Wrap(rows.Err(), "iterate selections")
	})
	return selections, err
}
