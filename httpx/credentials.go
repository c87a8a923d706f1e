package httpx

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"

	"github.com/artdubrouski/survey/database"
	"github.com/artdubrouski/survey/log"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	refreshTTL = 8760 * time.Hour
)

// accounts lets the bearer server issue password and refresh grants for the
// users stored in db. Only staff users get the admin role.
type accounts struct {
	db *sql.DB
}

func CredentialsVerifier(db *sql.DB) oauth.CredentialsVerifier {
	return accounts{db}
}

func (a accounts) ValidateUser(username, password, _ string, r *http.Request) error {
	err := database.Authenticate(r.Context(), a.db, username, password)
	if err != nil && !errors.Is(err, database.ErrBadCredentials) {
		log.Errorf("login.user: %s", err)
	}
	return err
}

func (a accounts) AddClaims(_ oauth.TokenType, username, _, _ string, r *http.Request) (map[string]string, error) {
	staff, err := database.IsStaff(r.Context(), a.db, username)
	if err != nil {
		return nil, err
	}
	if staff {
		return map[string]string{"roles": RoleAdmin}, nil
	}
	return map[string]string{"roles": RoleUser}, nil
}

// The bearer server gives these two no request, hence the background
// context.

func (a accounts) StoreTokenID(_ oauth.TokenType, username, tokenID, refreshTokenID string) error {
	grant := database.RefreshGrant{Username: username, TokenID: tokenID, RefreshTokenID: refreshTokenID}
	return database.StoreRefreshGrant(context.Background(), a.db, grant, time.Now().Add(refreshTTL))
}

func (a accounts) ValidateTokenID(_ oauth.TokenType, username, tokenID, refreshTokenID string) error {
	grant := database.RefreshGrant{Username: username, TokenID: tokenID, RefreshTokenID: refreshTokenID}
	return database.ConsumeRefreshGrant(context.Background(), a.db, grant, time.Now())
}

func (accounts) AddProperties(oauth.TokenType, string, string, string, *http.Request) (map[string]string, error) {
	return nil, nil
}

// ValidateClient refuses the client credentials grant; only users log in.
func (accounts) ValidateClient(string, string, string, *http.Request) error {
	return errors.New("client credentials are not supported")
}
