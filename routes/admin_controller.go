package routes

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/artdubrouski/survey/app"
	"github.com/artdubrouski/survey/httpx"
	"github.com/artdubrouski/survey/model"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := model.SurveyInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogBadBody(w, r, "request.parse_body", err)
			return
		}

		survey, err := app.Store.CreateSurvey(r.Context(), in)
		if err != nil {
			httpx.RenderError(w, r, "db.create_survey", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, survey)
	}
}

// UpdateSurvey replaces a survey, or patches it when partial is set. A
// question list in the body is reconciled with the stored questions.
func UpdateSurvey(app app.App, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r)
		if !ok {
			return
		}

		in := model.SurveyInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogBadBody(w, r, "request.parse_body", err)
			return
		}

		survey, err := app.Store.UpdateSurvey(r.Context(), surveyId, in, partial)
		if err != nil {
			httpx.RenderError(w, r, "db.update_survey", err)
			return
		}
		render.JSON(w, r, survey)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r)
		if !ok {
			return
		}

		err := app.Store.DeleteSurvey(r.Context(), surveyId)
		if err != nil {
			httpx.RenderError(w, r, "db.delete_survey", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListQuestions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := app.Store.ListQuestions(r.Context(), r.URL.Query().Get("ordering"))
		if err != nil {
			httpx.LogInternalError(w, "db.list_questions", err)
			return
		}
		render.JSON(w, r, questions)
	}
}

func GetQuestionById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, ok := idParam(w, r)
		if !ok {
			return
		}

		question, err := app.Store.GetQuestion(r.Context(), questionId)
		if err != nil {
			httpx.RenderError(w, r, "db.get_question", err)
			return
		}
		render.JSON(w, r, question)
	}
}

func CreateQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := model.QuestionInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogBadBody(w, r, "request.parse_body", err)
			return
		}

		question, err := app.Store.CreateQuestion(r.Context(), in)
		if err != nil {
			httpx.RenderError(w, r, "db.create_question", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, question)
	}
}

func UpdateQuestion(app app.App, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, ok := idParam(w, r)
		if !ok {
			return
		}

		in := model.QuestionInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogBadBody(w, r, "request.parse_body", err)
			return
		}

		question, err := app.Store.UpdateQuestion(r.Context(), questionId, in, partial)
		if err != nil {
			httpx.RenderError(w, r, "db.update_question", err)
			return
		}
		render.JSON(w, r, question)
	}
}

func DeleteQuestion(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionId, ok := idParam(w, r)
		if !ok {
			return
		}

		err := app.Store.DeleteQuestion(r.Context(), questionId)
		if err != nil {
			httpx.RenderError(w, r, "db.delete_question", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
