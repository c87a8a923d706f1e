package httpx

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/artdubrouski/survey/config"
)

// NewBearerServer issues signed access tokens for the users stored in db.
func NewBearerServer(db *sql.DB, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(db), nil)
}
