package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("uses type title", func(t *testing.T) {
		n, err := New(uuid.New(), TypeAccessRightsRemoved, Metadata{"task_id": "x"})

		require.NoError(t, err)
		assert.Equal(t, "Task access revoked", n.Title)
		assert.False(t, n.IsRead)
		assert.False(t, n.IsClosed)
		assert.Equal(t, "x", n.Metadata["task_id"])
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := New(uuid.New(), Type("SPAM"), nil)

		assert.Error(t, err)
	})
}

func TestNotification_Close(t *testing.T) {
	n, err := New(uuid.New(), TypeTaskDeadline, nil)
	require.NoError(t, err)

	n.Close()

	assert.True(t, n.IsClosed)
	assert.True(t, n.IsRead)
}
