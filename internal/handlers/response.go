package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"award-review/internal/apperrors"
	"award-review/internal/middleware"
	"award-review/internal/query"
)

// Envelope is the body of every API response. The HTTP status equals StatusCode.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Meta       *query.Meta `json:"meta,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// respondWithJSON writes a successful envelope around data
func respondWithJSON(w http.ResponseWriter, code int, message string, data interface{}) {
	writeEnvelope(w, Envelope{StatusCode: code, Message: message, Success: true, Data: data})
}

// respondWithPage writes the items of a page with its meta
func respondWithPage[T any](w http.ResponseWriter, message string, page query.Page[T]) {
	writeEnvelope(w, Envelope{
		StatusCode: http.StatusOK,
		Message:    message,
		Success:    true,
		Data:       page.Items,
		Meta:       &page.Meta,
	})
}

// respondWithError maps err onto its HTTP status. Internal errors are logged and
// replaced with a generic message.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.HTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		slog.Error("Request failed",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		message = "Internal server error"
	}
	writeEnvelope(w, Envelope{
		StatusCode: code,
		Message:    message,
		Success:    false,
		Error:      http.StatusText(code),
	})
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := JSONResponse(w, env); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// JSONResponse encodes data with nil slices written as [] instead of null.
// Always use it instead of json.NewEncoder(w).Encode().
func JSONResponse(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(normalizeSlices(data))
}

var (
	timeType       = reflect.TypeOf(time.Time{})
	rawMessageType = reflect.TypeOf(json.RawMessage(nil))
)

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return data
		}
		elem := v.Elem()
		result := reflect.New(elem.Type())
		setNormalized(result.Elem(), elem)
		return result.Interface()

	case reflect.Slice:
		// A nil RawMessage encodes as null; an empty one is invalid JSON.
		if v.Type() == rawMessageType {
			return data
		}
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			setNormalized(result.Index(i), v.Index(i))
		}
		return result.Interface()

	case reflect.Struct:
		if v.Type() == timeType {
			return data
		}
		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			field := v.Field(i)
			switch field.Kind() {
			case reflect.Slice, reflect.Ptr, reflect.Struct, reflect.Interface:
				setNormalized(result.Field(i), field)
			default:
				result.Field(i).Set(field)
			}
		}
		return result.Interface()
	}
	return data
}

// setNormalized stores the normalized form of src into dst, falling back to src
// when normalization yields nothing assignable.
func setNormalized(dst, src reflect.Value) {
	if src.Kind() == reflect.Interface && src.IsNil() {
		return
	}
	if !src.CanInterface() {
		return
	}
	n := reflect.ValueOf(normalizeSlices(src.Interface()))
	if n.IsValid() && n.Type().AssignableTo(dst.Type()) {
		dst.Set(n)
		return
	}
	dst.Set(src)
}
