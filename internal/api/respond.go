package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	domainerrors "coursereq/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes the payload with the status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError translates a domain error into the JSON error envelope. Internal
// errors keep their message out of the response.
func WriteError(w http.ResponseWriter, err error) {
	var derr *domainerrors.Error
	if !errors.As(err, &derr) {
		derr = domainerrors.Wrap(err, domainerrors.CodeInternal, "internal error")
	}
	envelope := errorEnvelope{Error: string(derr.Code)}
	if derr.Code != domainerrors.CodeInternal {
		envelope.Message = derr.Message
	}
	WriteJSON(w, domainerrors.ToHTTPStatus(derr.Code), envelope)
}

// Decode parses and validates the JSON request body into T.
func Decode[T any](r *http.Request) (T, error) {
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, domainerrors.New(domainerrors.CodeBadRequest, "malformed JSON body")
	}
	if err := validate.Struct(payload); err != nil {
		return payload, domainerrors.Wrap(err, domainerrors.CodeBadRequest, "invalid request payload")
	}
	return payload, nil
}
