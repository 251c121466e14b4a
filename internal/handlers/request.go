package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"award-review/internal/apperrors"
	"award-review/internal/middleware"
	"award-review/internal/models"
	"award-review/pkg/validator"
)

// maxBodyBytes bounds request bodies; application documents carry base64 signatures.
const maxBodyBytes = 4 << 20

var errUnauthenticated = errors.New("unauthenticated")

// caller returns the authenticated caller or writes a 401.
func caller(w http.ResponseWriter, r *http.Request) (models.Caller, bool) {
	c, ok := middleware.CallerFrom(r)
	if !ok {
		writeEnvelope(w, Envelope{
			StatusCode: http.StatusUnauthorized,
			Message:    errUnauthenticated.Error(),
			Error:      http.StatusText(http.StatusUnauthorized),
		})
	}
	return c, ok
}

// decodeJSON reads the body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("body", "request body is empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.NewValidationError("body", "request body is too large")
		}
		return apperrors.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return validator.ValidateStruct(dst)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func pathType(r *http.Request) (models.ApplicationType, error) {
	t, err := models.ParseApplicationType(r.PathValue("type"))
	if err != nil {
		return "", apperrors.NewValidationError("type", "must be citation or appreciation")
	}
	return t, nil
}

// typeAndID reads the {type} and {id} path values.
func typeAndID(r *http.Request) (models.ApplicationType, int64, error) {
	t, err := pathType(r)
	if err != nil {
		return "", 0, err
	}
	id, err := pathID(r, "id")
	if err != nil {
		return "", 0, err
	}
	return t, id, nil
}
