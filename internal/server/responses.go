package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/simonvc/erpledger/internal/ledger"
)

const userHeader = "X-User-ID"

type errorResponse struct {
	Error string      `json:"error"`
	Kind  ledger.Kind `json:"kind,omitempty"`
	Field string      `json:"field,omitempty"`
	ID    string      `json:"id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var le *ledger.Error
	if errors.As(err, &le) {
		resp.Kind, resp.Field, resp.ID = le.Kind, le.Field, le.ID
	}
	switch status {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	case http.StatusInternalServerError:
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request error")
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		return http.StatusBadRequest
	case ledger.KindUnbalanced:
		return http.StatusUnprocessableEntity
	case ledger.KindConflict:
		return http.StatusConflict
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindConcurrency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v and runs its validate tags.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ledger.Validation("body", "invalid JSON: %v", err)
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Param() != "" {
				return ledger.Validation(fe.Field(), "failed %s=%s", fe.Tag(), fe.Param())
			}
			return ledger.Validation(fe.Field(), "failed %s", fe.Tag())
		}
		return ledger.Validation("body", "%v", err)
	}
	return nil
}

// actingUser reads the X-User-ID header every mutation must carry.
func actingUser(r *http.Request) (string, error) {
	u := strings.TrimSpace(r.Header.Get(userHeader))
	if u == "" {
		return "", ledger.Validation("user_id", "%s header is required", userHeader)
	}
	return u, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (time.Time, error) {
	return parseDate(name, r.URL.Query().Get(name))
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, ledger.Validation(field, "date %q must be YYYY-MM-DD", v)
	}
	return t, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, ledger.Validation(name, "%q is not a number", v)
	}
	return n, nil
}

func queryBool(r *http.Request, name string) *bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	b := v == "true" || v == "1"
	return &b
}
