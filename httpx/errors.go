package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/artdubrouski/survey/log"
	"github.com/artdubrouski/survey/store"
	"github.com/artdubrouski/survey/validate"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

type ErrorDetail struct {
	Code    validate.Kind `json:"code"`
	Message string        `json:"message"`
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// Will log a rejected request body, and send an HTTP response with status 400
// and the rejection as JSON
func LogRejected(w http.ResponseWriter, r *http.Request, code string, err *validate.Error) {
	LogRejectedStatus(w, r, http.StatusBadRequest, code, err)
}

// Will log a rejected request, and send an HTTP response with the given
// status and the rejection as JSON
func LogRejectedStatus(w http.ResponseWriter, r *http.Request, status int, code string, err *validate.Error) {
	log.WithFields(log.Fields{"kind": err.Kind}).Debugf("%s: %s", code, err.Message)
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{ErrorDetail{Code: err.Kind, Message: err.Message}})
}

// Will log a body that could not be decoded, and send it back as a malformed
// request
func LogBadBody(w http.ResponseWriter, r *http.Request, code string, err error) {
	LogRejected(w, r, code, &validate.Error{
		Kind:    validate.Malformed,
		Message: "JSON parse error - " + err.Error(),
	})
}

// RenderError answers with the response matching err: 400 for a rejection,
// 404 for a missing object and 500 for anything else.
func RenderError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		LogRejected(w, r, code, verr)
	case errors.Is(err, store.ErrNotFound):
		LogNotFound(w, code, r.URL.Path)
	default:
		LogInternalError(w, code, err)
	}
}
