package internal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/internal"
)

func TestActionMessages(t *testing.T) {
	t.Parallel()

	t.Run("messages keep insertion order", func(t *testing.T) {
		t.Parallel()

		m := internal.NewActionMessages()
		require.False(t, m.HasMessages())

		m.Add("one")
		require.NoError(t, m.AddKeyed("saved", "two"))
		m.Add("three")

		require.True(t, m.HasMessages())
		require.Equal(t, []string{"one", "two", "three"}, m.Messages())

		text, ok := m.Message("saved")
		require.True(t, ok)
		require.Equal(t, "two", text)

		_, ok = m.Message("missing")
		require.False(t, ok)
		_, ok = m.Message("")
		require.False(t, ok)
	})

	t.Run("keys are unique per kind", func(t *testing.T) {
		t.Parallel()

		m := internal.NewActionMessages()
		require.NoError(t, m.AddKeyed("k", "msg"))
		require.ErrorIs(t, m.AddKeyed("k", "again"), internal.ErrDuplicateMessageKey)

		require.NoError(t, m.AddKeyedError("k", "err"))
		require.ErrorIs(t, m.AddKeyedError("k", "again"), internal.ErrDuplicateMessageKey)

		text, ok := m.Error("k")
		require.True(t, ok)
		require.Equal(t, "err", text)
	})

	t.Run("errors and field errors", func(t *testing.T) {
		t.Parallel()

		m := internal.NewActionMessages()
		require.False(t, m.HasErrors())

		m.AddFieldError("email", "invalid")
		require.True(t, m.HasErrors())

		m.AddError("general")
		m.AddFieldError("name", "required")
		m.AddFieldError("email", "taken")

		require.Equal(t, []string{"general"}, m.Errors())
		require.Equal(t, []internal.Param{
			{Key: "email", Value: "taken"},
			{Key: "name", Value: "required"},
		}, m.FieldErrors())

		text, ok := m.FieldError("email")
		require.True(t, ok)
		require.Equal(t, "taken", text)
	})

	t.Run("clear", func(t *testing.T) {
		t.Parallel()

		m := internal.NewActionMessages()
		m.Add("a")
		m.AddError("b")
		m.AddFieldError("c", "d")
		m.Clear()

		require.False(t, m.HasMessages())
		require.False(t, m.HasErrors())
		require.Empty(t, m.FieldErrors())
		require.NoError(t, m.AddKeyed("a", "again"))
	})
}
