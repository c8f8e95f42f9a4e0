package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/backend/internal/interfaces/http/dto"
)

type validationProbe struct {
	Title    string `json:"title" binding:"required,max=5"`
	Priority string `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	Email    string `json:"email" binding:"omitempty,email"`
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	r := gin.New()
	r.Use(RequestID())
	r.POST("/test", func(c *gin.Context) {
		var req validationProbe
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) (*httptest.ResponseRecorder, dto.Response) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := serve(r, req)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w, resp
	}

	t.Run("field errors use json names", func(t *testing.T) {
		w, resp := post(`{"title":"much too long","priority":"URGENT","email":"nope"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, "title must be at most 5 characters", messages["title"])
		assert.Equal(t, "priority must be one of: LOW MEDIUM HIGH", messages["priority"])
		assert.Equal(t, "email must be a valid email", messages["email"])
	})

	t.Run("required", func(t *testing.T) {
		_, resp := post(`{}`)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "title is required", resp.Error.Details[0].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := post(`{"title":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Empty(t, resp.Error.Details[0].Field)
	})
}
