package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/logging"
)

type errorBody struct {
	Error string      `json:"error"`
	Code  apperr.Kind `json:"code"`
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return apperr.Validation("Invalid request body: " + err.Error()).WithCause(err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

// respondError writes err as {"error", "code"} with its kind's status.
// Unclassified errors are INTERNAL and logged.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Kind() == apperr.KindInternal {
		logging.FromContext(r.Context()).Error("request failed", "error", fmt.Sprintf("%+v", err))
	}
	respondJSON(w, appErr.HTTPCode(), errorBody{Error: appErr.Message(), Code: appErr.Kind()})
}

// validationError turns validator failures into a VALIDATION error naming
// the first offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("Invalid request").WithCause(err)
	}
	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fe.Field() + " is required"
	case "min":
		msg = fe.Field() + " must be at least " + fe.Param() + " characters"
	case "gt":
		msg = fe.Field() + " must be greater than " + fe.Param()
	case "gte":
		msg = fe.Field() + " must be at least " + fe.Param()
	case "lte":
		msg = fe.Field() + " must be at most " + fe.Param()
	default:
		msg = fe.Field() + " is invalid"
	}
	return apperr.Validation(msg).WithCause(err)
}

// int64Param parses a positive integer path or query value.
func int64Param(raw, name string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, apperr.Validation("Invalid " + name)
	}
	return v, nil
}
