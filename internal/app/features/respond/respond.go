// internal/app/features/respond/respond.go
//
// Shared JSON plumbing for the feature handlers: response encoding,
// request decoding, and the mapping from engine errors to HTTP status
// codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vocelabs/vocehub/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20 // 1 MiB is generous for admin payloads

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Err maps an error to an HTTP response. Engine errors carry their kind;
// a missing document is 404; anything unclassified is a 500 with the
// detail kept out of the response body.
func Err(w http.ResponseWriter, log *zap.Logger, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		status := http.StatusInternalServerError
		switch e.Kind {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindAuthorization:
			status = http.StatusForbidden
		case apperr.KindConflict:
			status = http.StatusConflict
		case apperr.KindIntegrity:
			log.Error("integrity failure", zap.Error(err))
		}
		JSON(w, status, errorBody{Error: e.Message, Kind: e.Kind.String()})
		return
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		JSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	log.Error("request failed", zap.Error(err))
	JSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// Conflict writes a 409 with the given message. Used for store
// duplicate sentinels that never pass through the engines.
func Conflict(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusConflict, errorBody{Error: msg, Kind: "conflict"})
}

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "validation"})
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter) {
	JSON(w, http.StatusNotFound, errorBody{Error: "not found"})
}

// Forbidden writes a 403.
func Forbidden(w http.ResponseWriter) {
	JSON(w, http.StatusForbidden, errorBody{Error: "forbidden", Kind: "authorization"})
}

// Decode reads a JSON request body into dst. Unknown fields are
// rejected so client typos surface as 400s instead of silent no-ops.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
