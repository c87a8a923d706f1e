// Package app bundles what every controller needs.
package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/artdubrouski/survey/config"
	"github.com/artdubrouski/survey/httpx"
	"github.com/artdubrouski/survey/store"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Store   *store.Store
	Metrics *httpx.Metrics
}

func New(db *sql.DB, cfg config.Config) App {
	return App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(db, cfg),
		Config:       cfg,
		Store:        store.New(db),
		Metrics:      httpx.NewMetrics(),
	}
}
