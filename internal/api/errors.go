package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did/resolver"
	"github.com/tcfw/didkms/pkg/rotation"
	"github.com/tcfw/didkms/pkg/storage"
)

const faultCode = "Internal"

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps every known failure kind to its response status and the
// level it is logged at. ok is false for kinds that must be treated as
// faults.
func (a *Api) classify(k rotation.Kind) (status int, level logrus.Level, ok bool) {
	switch k {
	case rotation.IdentifierNotProvided:
		return http.StatusBadRequest, logrus.InfoLevel, true
	case rotation.KeyNotConfigured:
		return http.StatusUnprocessableEntity, logrus.ErrorLevel, true
	case rotation.NoCurrentKey, rotation.DuplicateCurrentKey:
		return http.StatusConflict, logrus.ErrorLevel, true
	case rotation.InvalidKeyParameters, rotation.UnsupportedKeyUse:
		return http.StatusBadRequest, logrus.InfoLevel, true
	case rotation.NotFound:
		return http.StatusNotFound, logrus.InfoLevel, true
	case rotation.Forbidden:
		if a.concealForbidden {
			return http.StatusNotFound, logrus.WarnLevel, true
		}
		return http.StatusForbidden, logrus.WarnLevel, true
	case rotation.ConcurrentModification:
		return http.StatusConflict, logrus.DebugLevel, true
	default:
		return 0, 0, false
	}
}

func (a *Api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var re *rotation.Error
	if !errors.As(err, &re) {
		a.fault(w, r, err)
		return
	}

	status, level, ok := a.classify(re.Kind)
	if !ok {
		a.fault(w, r, err)
		return
	}

	a.requestLog(r).WithError(err).WithFields(logging.Fields{
		"kind":   re.Kind.String(),
		"status": status,
	}).Log(level, "request failed")

	detail := errorDetail{Code: re.Kind.String(), Message: re.Error()}
	if re.Kind == rotation.Forbidden && a.concealForbidden {
		detail = errorDetail{Code: rotation.NotFound.String(), Message: rotation.NotFound.String() + " for " + re.Identifier}
	}

	writeJSON(w, status, errorBody{Error: detail})
}

// fault handles anything that is not a known failure
func (a *Api) fault(w http.ResponseWriter, r *http.Request, err error) {
	a.requestLog(r).WithError(err).Error("unexpected failure")

	writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
		Code:    faultCode,
		Message: http.StatusText(http.StatusInternalServerError),
	}})
}

// lookupError gives store failures of read endpoints the same shape as
// rotation failures
func lookupError(err error, id string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, resolver.ErrUnknownMethod), errors.Is(err, resolver.ErrInvalidDID):
		return &rotation.Error{Kind: rotation.NotFound, Identifier: id, Err: err}
	case errors.Is(err, storage.ErrForbidden):
		return &rotation.Error{Kind: rotation.Forbidden, Identifier: id, Err: err}
	default:
		return err
	}
}

func (a *Api) requestLog(r *http.Request) *logrus.Entry {
	return a.log.WithFields(logging.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSONAs(w, status, "application/json", v)
}

func writeJSONAs(w http.ResponseWriter, status int, contentType string, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WithError(err).Warn("writing response")
	}
}
