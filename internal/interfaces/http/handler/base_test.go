package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/internal/domain/identity"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/interfaces/http/middleware"
	"github.com/taskflow/backend/tests/testutil"
)

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"mapped domain code", task.ErrOverdueStatusLocked, http.StatusUnprocessableEntity, "OVERDUE_STATUS_LOCKED"},
		{"not found by convention", task.ErrTaskNotFound, http.StatusNotFound, "TASK_NOT_FOUND"},
		{"wrapped domain error", errors.Join(errors.New("ctx"), task.ErrAccessDenied), http.StatusForbidden, "ACCESS_DENIED"},
		{"unknown error", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		testutil.RunHTTPTestCases(t, func(c *gin.Context) { h.HandleError(c, tt.err) }, []testutil.HTTPTestCase{{
			Name:           tt.name,
			Setup:          func(t *testing.T, tc *testutil.TestContext) { tc.SetRequestID("req-1") },
			ExpectedStatus: tt.status,
			ExpectedCode:   tt.code,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				errInfo := testutil.JSONResponse(t, tc)["error"].(map[string]any)
				assert.Equal(t, "req-1", errInfo["request_id"])
				if tt.status == http.StatusInternalServerError {
					assert.NotContains(t, errInfo["message"], "connection reset", "internal details stay in the logs")
				}
			},
		}})
	}
}

func TestBaseHandler_DomainErrorMessagePassesThrough(t *testing.T) {
	h := &BaseHandler{}
	custom := shared.NewDomainError("SUBTASK_NESTING_TOO_DEEP", "Subtasks cannot have subtasks")

	testutil.RunHTTPTestCase(t, func(c *gin.Context) { h.HandleError(c, custom) }, testutil.HTTPTestCase{
		ExpectedStatus: http.StatusUnprocessableEntity,
		Validate: func(t *testing.T, tc *testutil.TestContext) {
			errInfo := testutil.JSONResponse(t, tc)["error"].(map[string]any)
			assert.Equal(t, "Subtasks cannot have subtasks", errInfo["message"])
		},
	})
}

func TestBaseHandler_PathUUID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	handler := func(c *gin.Context) {
		if got, ok := h.pathUUID(c, "id"); ok {
			h.Success(c, got)
		}
	}
	testutil.RunHTTPTestCases(t, handler, []testutil.HTTPTestCase{
		{
			Name:           "valid",
			Params:         gin.Params{{Key: "id", Value: id.String()}},
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *testutil.TestContext) {
				assert.Equal(t, id, testutil.DataAs[uuid.UUID](t, tc.ResponseBody()))
			},
		},
		{
			Name:           "invalid",
			Params:         gin.Params{{Key: "id", Value: "42"}},
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   "BAD_REQUEST",
		},
	})
}

func TestBaseHandler_Principal(t *testing.T) {
	h := &BaseHandler{}
	handler := func(c *gin.Context) {
		if p, ok := h.principal(c); ok {
			h.Success(c, p.Username)
		}
	}

	testutil.RunHTTPTestCases(t, handler, []testutil.HTTPTestCase{
		{
			Name:           "missing",
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedCode:   "UNAUTHORIZED",
		},
		{
			Name: "present",
			Setup: func(t *testing.T, tc *testutil.TestContext) {
				middleware.SetPrincipal(tc.Context, &identityapp.Principal{
					UserID: uuid.New(), Username: "alice", Role: identity.RoleUser,
				})
			},
			ExpectedStatus: http.StatusOK,
		},
	})
}
