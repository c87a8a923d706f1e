package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/artdubrouski/survey/app"
	"github.com/artdubrouski/survey/httpx"
	"github.com/artdubrouski/survey/log"
	"github.com/artdubrouski/survey/model"
	"github.com/artdubrouski/survey/routes/middlewares"
	"github.com/artdubrouski/survey/validate"
)

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id", "invalid id %q", chi.URLParam(r, "id"))
		return 0, false
	}
	return id, true
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Store.ListSurveys(r.Context(), middlewares.Privileged(r))
		if err != nil {
			httpx.LogInternalError(w, "db.list_surveys", err)
			return
		}
		render.JSON(w, r, surveys)
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, ok := idParam(w, r)
		if !ok {
			return
		}

		survey, err := app.Store.GetSurvey(r.Context(), surveyId, middlewares.Privileged(r))
		if err != nil {
			httpx.RenderError(w, r, "db.get_survey", err)
			return
		}
		render.JSON(w, r, survey)
	}
}

// ListSurveyResponses shows administrators every submission and anyone else
// the submissions made under their respondent cookie.
func ListSurveyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		srs, err := app.Store.ListSurveyResponses(
			r.Context(),
			middlewares.Privileged(r),
			httpx.KnownRespondent(r, app.CookieName),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.list_survey_responses", err)
			return
		}
		render.JSON(w, r, srs)
	}
}

func GetSurveyResponseById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		srId, ok := idParam(w, r)
		if !ok {
			return
		}

		sr, err := app.Store.GetSurveyResponse(
			r.Context(),
			srId,
			middlewares.Privileged(r),
			httpx.KnownRespondent(r, app.CookieName),
		)
		if err != nil {
			httpx.RenderError(w, r, "db.get_survey_response", err)
			return
		}
		render.JSON(w, r, sr)
	}
}

// SubmitSurveyResponse stores a respondent's answers. A respondent without a
// valid cookie gets a new id, sent back as a cookie once the submission is
// accepted.
func SubmitSurveyResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := model.SubmissionInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			app.Metrics.SubmissionRejected(validate.Malformed)
			httpx.LogBadBody(w, r, "request.parse_body", err)
			return
		}

		userId, existing := httpx.Respondent(r, app.CookieName)
		sr, err := app.Store.Submit(r.Context(), userId, in)
		if err != nil {
			if kind, ok := validate.KindOf(err); ok {
				app.Metrics.SubmissionRejected(kind)
			}
			httpx.RenderError(w, r, "submission.rejected", err)
			return
		}
		app.Metrics.SubmissionAccepted()
		log.WithFields(log.Fields{"survey": *sr.SurveyID, "id": sr.ID}).Debug("submission.accepted")

		if !existing {
			httpx.SetRespondent(w, app.CookieName, userId)
		}
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sr)
	}
}
