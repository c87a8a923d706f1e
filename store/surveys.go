package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/artdubrouski/survey/database"
	"github.com/artdubrouski/survey/log"
	"github.com/artdubrouski/survey/model"
	"github.com/artdubrouski/survey/nested"
	"github.com/artdubrouski/survey/validate"
)

// ListSurveys returns surveys ordered by start date and title. Callers that
// are not privileged only see surveys that have not ended yet.
func (s *Store) ListSurveys(ctx context.Context, privileged bool) ([]model.Survey, error) {
	query := `
		SELECT id, title, description, start_date, end_date
		FROM survey`
	var args []any
	if !privileged {
		query += ` WHERE end_date > ?`
		args = append(args, s.now().Unix())
	}
	query += ` ORDER BY start_date, title, id`
	return loadSurveys(ctx, s.db, query, args...)
}

// GetSurvey returns one survey with the same visibility rule as ListSurveys.
func (s *Store) GetSurvey(ctx context.Context, id int64, privileged bool) (model.Survey, error) {
	survey, err := surveyByID(ctx, s.db, id)
	if err != nil {
		return survey, err
	}
	if !privileged && !survey.Active(model.NewTimestamp(s.now())) {
		return model.Survey{}, ErrNotFound
	}
	return survey, nil
}

// CreateSurvey writes a survey together with its questions and their options.
func (s *Store) CreateSurvey(ctx context.Context, in model.SurveyInput) (survey model.Survey, err error) {
	if err = validate.SurveyCreate(in); err != nil {
		return
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		description := ""
		if in.Description != nil {
			description = *in.Description
		}

		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO survey (title, description, start_date, end_date) VALUES (?, ?, ?, ?)
			RETURNING id`,
			*in.Title,
			description,
			in.StartDate.Unix(),
			in.EndDate.Unix(),
		).Scan(&id)
		if err != nil {
			return errors.Wrap(err, "insert survey")
		}

		if err = writeQuestions(ctx, tx, id, nil, in.Questions, false); err != nil {
			return err
		}
		survey, err = surveyByID(ctx, tx, id)
		return err
	})
	return
}

// UpdateSurvey changes a survey. When the payload carries a question list,
// the survey's questions are reconciled with it: listed questions with a pk
// are updated, the others created, and questions left out are deleted.
func (s *Store) UpdateSurvey(ctx context.Context, id int64, in model.SurveyInput, partial bool) (survey model.Survey, err error) {
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := surveyByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if err = validate.SurveyUpdate(existing, in, partial); err != nil {
			return err
		}

		title, description, end := existing.Title, existing.Description, existing.EndDate
		if in.Title != nil {
			title = *in.Title
		}
		if in.Description != nil {
			description = *in.Description
		}
		if in.EndDate != nil {
			end = *in.EndDate
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE survey
			SET title = ?, description = ?, end_date = ?
			WHERE id = ?`,
			title,
			description,
			end.Unix(),
			id,
		)
		if err != nil {
			return errors.Wrap(err, "update survey")
		}

		if in.Questions != nil {
			err = writeQuestions(ctx, tx, id, existing.Questions, in.Questions, partial)
			if err != nil {
				return err
			}
		}
		survey, err = surveyByID(ctx, tx, id)
		return err
	})
	return
}

// DeleteSurvey removes a survey. Its questions and submissions stay, detached.
func (s *Store) DeleteSurvey(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete survey")
	}
	return rowsAffected(res)
}

func writeQuestions(ctx context.Context, tx *sql.Tx, surveyID int64, existing []model.Question, payload []model.QuestionInput, partial bool) error {
	arena := nested.NewArena(existing, func(q model.Question) int64 { return q.ID })
	plan, err := nested.Diff(arena, payload, model.QuestionInput.Key)
	if err != nil {
		return childError(err, "questions")
	}
	log.WithFields(log.Fields{
		"survey":  surveyID,
		"had":     arena.Len(),
		"created": plan.Count(nested.Create),
		"updated": plan.Count(nested.Update),
		"deleted": len(plan.Delete),
	}).Debug("db.write_questions")
	w := questionWriter{
		tx:       tx,
		surveyID: &surveyID,
		partial:  partial,
		existing: arena,
		prefix:   "questions",
	}
	return nested.Apply[model.QuestionInput](ctx, plan, w)
}

func surveyByID(ctx context.Context, q querier, id int64) (model.Survey, error) {
	surveys, err := loadSurveys(ctx, q, `
		SELECT id, title, description, start_date, end_date
		FROM survey
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return model.Survey{}, err
	}
	if len(surveys) == 0 {
		return model.Survey{}, ErrNotFound
	}
	return surveys[0], nil
}

func loadSurveys(ctx context.Context, q querier, query string, args ...any) ([]model.Survey, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query surveys")
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		var s model.Survey
		var start, end int64
		if err = rows.Scan(&s.ID, &s.Title, &s.Description, &start, &end); err != nil {
			return nil, errors.Wrap(err, "scan survey")
		}
		s.StartDate, s.EndDate = model.Unix(start), model.Unix(end)
		s.Questions = []model.Question{}
		surveys = append(surveys, s)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate surveys")
	}
	rows.Close()

	if len(surveys) == 0 {
		return surveys, nil
	}
	ids := make([]int64, len(surveys))
	index := make(map[int64]int, len(surveys))
	for i, s := range surveys {
		ids[i] = s.ID
		index[s.ID] = i
	}
	err = inChunks(ids, func(in string, args []any) error {
		questions, err := loadQuestions(ctx, q, selectQuestions+`
			WHERE q.survey_id IN `+in+`
			ORDER BY q.survey_id, q.position, q.id`,
			args...,
		)
		if err != nil {
			return err
		}
		for _, qu := range questions {
			i := index[*qu.SurveyID]
			surveys[i].Questions = append(surveys[i].Questions, qu)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return surveys, nil
}
