package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saveur1/community-system/app"
	"github.com/saveur1/community-system/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))
	root.Mount("/files", serveUploadedFiles(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get(`/surveys/{id:^\d+$}`, PublicGetSurveyById(app))
	api.
		With(middlewares.OptionalBearer(app.TokenSecret)).
		Post(`/surveys/{id:^\d+$}/submissions`, PublicSubmitSurvey(app))

	api.Post("/uploads", PublicUpload(app))
	api.Delete(`/uploads/{publicId:^[\w-]+$}`, PublicDeleteUpload(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(app))

		r.Get(`/surveys/{id:^\d+$}/submissions`, GetSurveySubmissions(app))

		// durable authoring draft of the caller
		r.Get("/draft", GetDraft(app))
		r.Put("/draft", PutDraft(app))
		r.Delete("/draft", DeleteDraft(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func serveUploadedFiles(app app.App) http.Handler {
	return http.StripPrefix("/files", http.FileServer(http.Dir(app.Uploads.Dir())))
}
