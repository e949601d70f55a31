package httperr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "keystone/pkg/domain-errors"
	"keystone/pkg/platform/sentinel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeDomainErrors(t *testing.T) {
	n := New(discardLogger(), false)

	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{
			name:    "unauthorized",
			err:     dErrors.New(dErrors.CodeUnauthorized, "invalid or expired credential"),
			status:  http.StatusUnauthorized,
			kind:    KindAuthentication,
			message: "invalid or expired credential",
		},
		{
			name:    "forbidden",
			err:     dErrors.New(dErrors.CodeForbidden, "access denied: TENANT_MISMATCH"),
			status:  http.StatusForbidden,
			kind:    KindAuthorization,
			message: "access denied: TENANT_MISMATCH",
		},
		{
			name:    "invalid input",
			err:     dErrors.New(dErrors.CodeInvalidInput, "email and password are required"),
			status:  http.StatusBadRequest,
			kind:    KindValidation,
			message: "email and password are required",
		},
		{
			name:    "not found",
			err:     dErrors.New(dErrors.CodeNotFound, "user not found"),
			status:  http.StatusNotFound,
			kind:    KindNotFound,
			message: "user not found",
		},
		{
			name:    "wrapped cause keeps the outer classification",
			err:     dErrors.Wrap(errors.New("pq: connection refused"), dErrors.CodeUnavailable, "failed to revoke token"),
			status:  http.StatusServiceUnavailable,
			kind:    KindUnavailable,
			message: "failed to revoke token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := n.Normalize(tt.err, http.MethodGet, "/me")
			assert.Equal(t, tt.status, env.StatusCode)
			assert.Equal(t, tt.kind, env.Error)
			assert.Equal(t, tt.message, env.Message)
			assert.Equal(t, "/me", env.Path)
			assert.Equal(t, http.MethodGet, env.Method)
		})
	}
}

func TestNormalizeConstraintViolations(t *testing.T) {
	n := New(discardLogger(), false)

	t.Run("pgx unique violation names the field", func(t *testing.T) {
		err := &pgconn.PgError{
			Code:   "23505",
			Detail: "Key (email)=(dup@example.com) already exists.",
		}
		env := n.Normalize(err, http.MethodPost, "/users")
		assert.Equal(t, http.StatusConflict, env.StatusCode)
		assert.Equal(t, KindConflict, env.Error)
		assert.Equal(t, "email already exists", env.Message)
	})

	t.Run("pq unique violation without detail falls back", func(t *testing.T) {
		err := &pq.Error{Code: "23505"}
		env := n.Normalize(err, http.MethodPost, "/users")
		assert.Equal(t, http.StatusConflict, env.StatusCode)
		assert.Equal(t, "resource already exists", env.Message)
	})

	t.Run("foreign key violation is a validation failure", func(t *testing.T) {
		err := &pgconn.PgError{Code: "23503"}
		env := n.Normalize(err, http.MethodPost, "/users")
		assert.Equal(t, http.StatusBadRequest, env.StatusCode)
		assert.Equal(t, KindValidation, env.Error)
		assert.Equal(t, "invalid reference", env.Message)
	})

	t.Run("not null violation", func(t *testing.T) {
		err := &pq.Error{Code: "23502"}
		env := n.Normalize(err, http.MethodPost, "/users")
		assert.Equal(t, http.StatusBadRequest, env.StatusCode)
		assert.Equal(t, "missing required field", env.Message)
	})

	t.Run("bad uuid text representation", func(t *testing.T) {
		err := &pgconn.PgError{Code: "22P02"}
		env := n.Normalize(err, http.MethodGet, "/users/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, env.StatusCode)
		assert.Equal(t, "invalid identifier", env.Message)
	})

	t.Run("unrecognized sqlstate is a 500", func(t *testing.T) {
		err := &pgconn.PgError{Code: "40001"}
		env := n.Normalize(err, http.MethodPost, "/users")
		assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
	})
}

func TestNormalizeSentinels(t *testing.T) {
	n := New(discardLogger(), false)

	env := n.Normalize(fmt.Errorf("lookup tenant: %w", sentinel.ErrNotFound), http.MethodGet, "/tenants/x")
	assert.Equal(t, http.StatusNotFound, env.StatusCode)
	assert.Equal(t, KindNotFound, env.Error)
	assert.Equal(t, "resource not found", env.Message)
}

func TestNormalizeUnknownError(t *testing.T) {
	t.Run("development surfaces the runtime type name", func(t *testing.T) {
		n := New(discardLogger(), false)

		env := n.Normalize(errors.New("something odd"), http.MethodGet, "/me")
		assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
		assert.Equal(t, "*errors.errorString", env.Error)
		assert.Equal(t, "internal server error", env.Message)
	})

	t.Run("production hides the runtime type name", func(t *testing.T) {
		n := New(discardLogger(), true)

		env := n.Normalize(errors.New("db connection refused"), http.MethodGet, "/me")
		assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
		assert.Equal(t, KindInternal, env.Error)
		assert.Equal(t, "internal server error", env.Message)
	})

	t.Run("production hides driver error types too", func(t *testing.T) {
		n := New(discardLogger(), true)

		env := n.Normalize(&pgconn.PgError{Code: "40001"}, http.MethodPost, "/users")
		assert.Equal(t, http.StatusInternalServerError, env.StatusCode)
		assert.Equal(t, KindInternal, env.Error)
	})
}

func TestStackTracePolicy(t *testing.T) {
	t.Run("development includes stack on 500", func(t *testing.T) {
		env := New(discardLogger(), false).Normalize(errors.New("boom"), http.MethodGet, "/me")
		assert.NotEmpty(t, env.Stack)
	})

	t.Run("production suppresses stack on 500", func(t *testing.T) {
		env := New(discardLogger(), true).Normalize(errors.New("boom"), http.MethodGet, "/me")
		assert.Empty(t, env.Stack)
	})

	t.Run("4xx never carries a stack", func(t *testing.T) {
		err := dErrors.New(dErrors.CodeInvalidInput, "bad input")
		env := New(discardLogger(), false).Normalize(err, http.MethodGet, "/me")
		assert.Empty(t, env.Stack)
	})
}

func TestWriteRendersEnvelopeAndLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	n := New(logger, true)

	t.Run("5xx logs at error severity", func(t *testing.T) {
		buf.Reset()
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)

		n.Write(rr, req, errors.New("db gone"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var env Envelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		assert.Equal(t, "internal server error", env.Message)
		assert.Empty(t, env.Stack)

		var logLine map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
		assert.Equal(t, "ERROR", logLine["level"])
	})

	t.Run("4xx logs at warn severity", func(t *testing.T) {
		buf.Reset()
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)

		n.Write(rr, req, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired credential"))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var logLine map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
		assert.Equal(t, "WARN", logLine["level"])
	})
}
