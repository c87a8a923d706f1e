package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"

	"github.com/artdubrouski/survey/database"
	"github.com/artdubrouski/survey/model"
	"github.com/artdubrouski/survey/nested"
	"github.com/artdubrouski/survey/validate"
)

const selectQuestions = `
	SELECT q.id, q.survey_id, COALESCE(s.title, ''), q.position, q.title, q.type
	FROM question q
	LEFT OUTER JOIN survey s ON (s.id = q.survey_id)`

// loadQuestions runs a question query, then attaches the options of every
// question found.
func loadQuestions(ctx context.Context, q querier, query string, args ...any) ([]model.Question, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query questions")
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var qu model.Question
		var surveyID sql.NullInt64
		err = rows.Scan(&qu.ID, &surveyID, &qu.SurveyTitle, &qu.Position, &qu.Title, &qu.Type)
		if err != nil {
			return nil, errors.Wrap(err, "scan question")
		}
		qu.SurveyID = nullableID(surveyID)
		if qu.SurveyID == nil {
			qu.SurveyTitle = model.DeletedLabel
		}
		qu.Options = []model.ResponseOption{}
		questions = append(questions, qu)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate questions")
	}
	rows.Close()

	if len(questions) == 0 {
		return questions, nil
	}
	ids := make([]int64, len(questions))
	for i, qu := range questions {
		ids[i] = qu.ID
	}
	options, err := optionsByQuestion(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if opts, ok := options[questions[i].ID]; ok {
			questions[i].Options = opts
		}
	}
	return questions, nil
}

func optionsByQuestion(ctx context.Context, q querier, questionIDs []int64) (map[int64][]model.ResponseOption, error) {
	options := make(map[int64][]model.ResponseOption)
	err := inChunks(questionIDs, func(in string, args []any) error {
		rows, err := q.QueryContext(ctx, `
			SELECT id, title, question_id
			FROM response_option
			WHERE question_id IN `+in+`
			ORDER BY question_id, position, id`,
			args...,
		)
		if err != nil {
			return errors.Wrap(err, "query options")
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOption(rows)
			if err != nil {
				return err
			}
			options[*o.QuestionID] = append(options[*o.QuestionID], o)
		}
		return errors.Wrap(rows.Err(), "iterate options")
	})
	return options, err
}

// optionsByID resolves option ids regardless of the question owning them.
func optionsByID(ctx context.Context, q querier, ids []int64) (map[int64]model.ResponseOption, error) {
	options := make(map[int64]model.ResponseOption, len(ids))
	err := inChunks(ids, func(in string, args []any) error {
		rows, err := q.QueryContext(ctx, `
			SELECT id, title, question_id
			FROM response_option
			WHERE id IN `+in,
			args...,
		)
		if err != nil {
			return errors.Wrap(err, "query options by id")
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOption(rows)
			if err != nil {
				return err
			}
			options[o.ID] = o
		}
		return errors.Wrap(rows.Err(), "iterate options by id")
	})
	return options, err
}

func scanOption(rows *sql.Rows) (model.ResponseOption, error) {
	var o model.ResponseOption
	var questionID sql.NullInt64
	if err := rows.Scan(&o.ID, &o.Title, &questionID); err != nil {
		return o, errors.Wrap(err, "scan option")
	}
	o.QuestionID = nullableID(questionID)
	return o, nil
}

func questionByID(ctx context.Context, q querier, id int64) (model.Question, error) {
	questions, err := loadQuestions(ctx, q, selectQuestions+` WHERE q.id = ?`, id)
	if err != nil {
		return model.Question{}, err
	}
	if len(questions) == 0 {
		return model.Question{}, ErrNotFound
	}
	return questions[0], nil
}

func surveyExists(ctx context.Context, q querier, id int64) error {
	var found int64
	err := q.QueryRowContext(ctx, `SELECT id FROM survey WHERE id = ?`, id).Scan(&found)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return &validate.Error{
			Kind:    validate.Malformed,
			Message: fmt.Sprintf("survey: invalid pk %d - object does not exist", id),
		}
	case err != nil:
		return errors.Wrap(err, "query survey")
	}
	return nil
}

// ListQuestions returns every question, orphaned ones included. ordering is
// "survey", "-survey" or empty for creation order.
func (s *Store) ListQuestions(ctx context.Context, ordering string) ([]model.Question, error) {
	order := ` ORDER BY q.id`
	switch ordering {
	case "survey":
		order = ` ORDER BY q.survey_id, q.position, q.id`
	case "-survey":
		order = ` ORDER BY q.survey_id DESC, q.position, q.id`
	}
	return loadQuestions(ctx, s.db, selectQuestions+order)
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (model.Question, error) {
	return questionByID(ctx, s.db, id)
}

// CreateQuestion writes a question on its own, appended to the end of its
// survey when it names one.
func (s *Store) CreateQuestion(ctx context.Context, in model.QuestionInput) (qu model.Question, err error) {
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		pos, err := nextPosition(ctx, tx, in.Survey)
		if err != nil {
			return err
		}
		w := questionWriter{tx: tx, surveyID: in.Survey}
		id, err := w.create(ctx, pos, in)
		if err != nil {
			return err
		}
		qu, err = questionByID(ctx, tx, id)
		return err
	})
	return
}

// UpdateQuestion changes a question and reconciles its options. A question
// moved to another survey goes to the end of it.
func (s *Store) UpdateQuestion(ctx context.Context, id int64, in model.QuestionInput, partial bool) (qu model.Question, err error) {
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := questionByID(ctx, tx, id)
		if err != nil {
			return err
		}

		w := questionWriter{tx: tx, surveyID: existing.SurveyID, partial: partial}
		pos := existing.Position
		if in.Survey != nil && (existing.SurveyID == nil || *in.Survey != *existing.SurveyID) {
			if pos, err = nextPosition(ctx, tx, in.Survey); err != nil {
				return err
			}
			w.surveyID = in.Survey
		}
		if err = w.update(ctx, existing, pos, in); err != nil {
			return err
		}
		qu, err = questionByID(ctx, tx, id)
		return err
	})
	return
}

// DeleteQuestion removes a question. Its options and the responses given to
// it are kept but lose their link to it.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete question")
	}
	return rowsAffected(res)
}

func nextPosition(ctx context.Context, q querier, surveyID *int64) (int, error) {
	if surveyID == nil {
		return 0, nil
	}
	if err := surveyExists(ctx, q, *surveyID); err != nil {
		return 0, err
	}
	var pos int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM question WHERE survey_id = ?`,
		*surveyID,
	).Scan(&pos)
	return pos, errors.Wrap(err, "query next position")
}

// questionWriter writes the questions of one survey, or a single question
// when surveyID is nil or the write is not nested. With a prefix set,
// rejections are reported at "<prefix>[<pos>]".
type questionWriter struct {
	tx       querier
	surveyID *int64
	partial  bool
	existing *nested.Arena[model.Question]
	prefix   string
}

func (w questionWriter) path(pos int) string {
	return fmt.Sprintf("%s[%d]", w.prefix, pos)
}

func (w questionWriter) fail(err error, pos int) error {
	if w.prefix == "" {
		return err
	}
	return withPath(err, w.path(pos))
}

func (w questionWriter) Create(ctx context.Context, pos int, in model.QuestionInput) error {
	_, err := w.create(ctx, pos, in)
	return err
}

func (w questionWriter) Update(ctx context.Context, id int64, pos int, in model.QuestionInput) error {
	existing, _ := w.existing.Get(id)
	return w.update(ctx, existing, pos, in)
}

func (w questionWriter) Delete(ctx context.Context, id int64) error {
	_, err := w.tx.ExecContext(ctx, `DELETE FROM question WHERE id = ?`, id)
	return errors.Wrap(err, "delete question")
}

func (w questionWriter) create(ctx context.Context, pos int, in model.QuestionInput) (int64, error) {
	qtype, err := validate.QuestionCreate(in)
	if err != nil {
		return 0, w.fail(err, pos)
	}

	var id int64
	err = w.tx.QueryRowContext(ctx, `
		INSERT INTO question (survey_id, position, title, type) VALUES (?, ?, ?, ?)
		RETURNING id`,
		w.surveyID,
		pos,
		*in.Title,
		qtype,
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert question")
	}

	plan, err := nested.Diff(nested.NewArena[model.ResponseOption](nil, optionID), in.Options, model.OptionInput.Key)
	if err != nil {
		return 0, w.fail(childError(err, "response_options"), pos)
	}
	ow := optionWriter{tx: w.tx, questionID: id}
	if err = nested.Apply[model.OptionInput](ctx, plan, ow); err != nil {
		return 0, w.fail(err, pos)
	}
	return id, nil
}

func (w questionWriter) update(ctx context.Context, existing model.Question, pos int, in model.QuestionInput) error {
	qtype, err := validate.QuestionUpdate(existing, in, w.partial)
	if err != nil {
		return w.fail(err, pos)
	}

	title := existing.Title
	if in.Title != nil {
		title = *in.Title
	}
	_, err = w.tx.ExecContext(ctx, `
		UPDATE question
		SET survey_id = ?, position = ?, title = ?, type = ?
		WHERE id = ?`,
		w.surveyID,
		pos,
		title,
		qtype,
		existing.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update question")
	}

	if qtype == model.Text && existing.Type.Selectable() {
		_, err = w.tx.ExecContext(ctx, `
			UPDATE response_option SET question_id = NULL WHERE question_id = ?`,
			existing.ID,
		)
		return errors.Wrap(err, "detach options")
	}
	if in.Options == nil {
		return nil
	}

	arena := nested.NewArena(existing.Options, optionID)
	plan, err := nested.Diff(arena, in.Options, model.OptionInput.Key)
	if err != nil {
		return w.fail(childError(err, "response_options"), pos)
	}
	ow := optionWriter{tx: w.tx, questionID: existing.ID}
	if err = nested.Apply[model.OptionInput](ctx, plan, ow); err != nil {
		return w.fail(err, pos)
	}
	return nil
}

func optionID(o model.ResponseOption) int64 {
	return o.ID
}

// optionWriter writes the response options of one question.
type optionWriter struct {
	tx         querier
	questionID int64
}

func (w optionWriter) Create(ctx context.Context, pos int, in model.OptionInput) error {
	_, err := w.tx.ExecContext(ctx, `
		INSERT INTO response_option (question_id, position, title) VALUES (?, ?, ?)`,
		w.questionID,
		pos,
		in.Title,
	)
	return errors.Wrap(err, "insert option")
}

func (w optionWriter) Update(ctx context.Context, id int64, pos int, in model.OptionInput) error {
	_, err := w.tx.ExecContext(ctx, `
		UPDATE response_option SET position = ?, title = ? WHERE id = ?`,
		pos,
		in.Title,
		id,
	)
	return errors.Wrap(err, "update option")
}

func (w optionWriter) Delete(ctx context.Context, id int64) error {
	_, err := w.tx.ExecContext(ctx, `DELETE FROM response_option WHERE id = ?`, id)
	return errors.Wrap(err, "delete option")
}
