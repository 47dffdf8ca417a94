package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	t.Run("creates root command", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		assert.NotNil(t, cmd)
		assert.Equal(t, "svcclient", cmd.Use)
		assert.Equal(t, "1.0.0", cmd.Version)
	})

	t.Run("has debug flag", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		flag := cmd.PersistentFlags().Lookup("debug")
		require.NotNil(t, flag)
	})

	t.Run("has subcommands", func(t *testing.T) {
		cmd := NewRootCommand("1.0.0")
		for _, name := range [][]string{{"request"}, {"cookies", "list"}, {"cookies", "clear"}, {"cookies", "prune"}} {
			sub, _, err := cmd.Find(name)
			require.NoError(t, err)
			assert.Contains(t, sub.Use, name[len(name)-1])
		}
	})
}
