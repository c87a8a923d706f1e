package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/artdubrouski/survey/app"
	"github.com/artdubrouski/survey/httpx"
	"github.com/artdubrouski/survey/routes/middlewares"
)

const idPattern = `/{id:^\d+$}`

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer, app.Metrics.Middleware)

	root.Get("/health", Health(app))
	root.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	root.Mount("/api/v1", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Privilege(app.TokenSecret))

		r.Get("/surveys", ListSurveys(app))
		r.Get("/surveys"+idPattern, GetSurveyById(app))

		r.Get("/survey-responses", ListSurveyResponses(app))
		r.Get("/survey-responses"+idPattern, GetSurveyResponseById(app))
		r.Post("/survey-responses", SubmitSurveyResponse(app))

		r.Group(func(r chi.Router) {
			r.Use(middlewares.Admin)

			// CRUD survey
			r.Post("/surveys", CreateSurvey(app))
			r.Put("/surveys"+idPattern, UpdateSurvey(app, false))
			r.Patch("/surveys"+idPattern, UpdateSurvey(app, true))
			r.Delete("/surveys"+idPattern, DeleteSurvey(app))

			// CRUD question
			r.Get("/questions", ListQuestions(app))
			r.Post("/questions", CreateQuestion(app))
			r.Get("/questions"+idPattern, GetQuestionById(app))
			r.Put("/questions"+idPattern, UpdateQuestion(app, false))
			r.Patch("/questions"+idPattern, UpdateQuestion(app, true))
			r.Delete("/questions"+idPattern, DeleteQuestion(app))
		})
	})

	return api
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.PingContext(r.Context()); err != nil {
			httpx.LogInternalError(w, "health.db_ping", err)
			return
		}
		render.JSON(w, r, map[string]any{"status": "ok"})
	}
}
