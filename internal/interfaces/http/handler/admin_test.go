package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	identityapp "github.com/taskflow/backend/internal/application/identity"
	"github.com/taskflow/backend/tests/testutil"
)

func TestAdminHandler(t *testing.T) {
	f := newAPIFixture(t)
	userCookie, bob := f.signUp(t, "bob")
	f.signUp(t, "root")
	f.promote(t, "root")
	adminCookie, admin := f.login(t, "root", "secret1")

	t.Run("non-admins are rejected", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/admin/users", nil, userCookie)
		assert.Equal(t, http.StatusForbidden, w.Code)
		testutil.AssertErrorBody(t, w.Body.Bytes(), "ACCESS_DENIED")
	})

	t.Run("lists users", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/admin/users", nil, adminCookie)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, testutil.DataAs[[]identityapp.UserResponse](t, w.Body.Bytes()), 2)
	})

	t.Run("cannot change own role", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/admin/users/"+admin.ID.String()+"/role",
			identityapp.ChangeRoleRequest{Role: "USER"}, adminCookie)
		assert.Equal(t, http.StatusForbidden, w.Code)
		testutil.AssertErrorBody(t, w.Body.Bytes(), "CANNOT_MODIFY_SELF")
	})

	t.Run("promotes another user", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/admin/users/"+bob.ID.String()+"/role",
			identityapp.ChangeRoleRequest{Role: "ADMIN"}, adminCookie)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "ADMIN", testutil.DataAs[identityapp.UserResponse](t, w.Body.Bytes()).Role)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/admin/users/"+bob.ID.String()+"/role",
			map[string]string{"role": "ROOT"}, adminCookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
