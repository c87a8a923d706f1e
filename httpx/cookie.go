package httpx

import (
	"net/http"

	"github.com/artdubrouski/survey/respondent"
)

const respondentMaxAge = 60 * 60 * 24 * 365

// Respondent returns the respondent id carried by the named cookie, or a
// newly minted one. existing is false when the id still has to be handed
// back with SetRespondent.
func Respondent(r *http.Request, name string) (id string, existing bool) {
	var token string
	if c, err := r.Cookie(name); err == nil {
		token = c.Value
	}
	return respondent.Resolve(token)
}

// KnownRespondent returns the respondent id carried by the named cookie, or
// "" when the cookie is absent or garbled.
func KnownRespondent(r *http.Request, name string) string {
	id, existing := Respondent(r, name)
	if !existing {
		return ""
	}
	return id
}

func SetRespondent(w http.ResponseWriter, name, id string) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     name,
		Value:    id,
		MaxAge:   respondentMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
