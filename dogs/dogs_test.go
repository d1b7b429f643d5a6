package dogs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogue(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, c.List())

	d, ok := c.Find(" luna ")
	require.True(t, ok)
	require.Equal(t, "Luna", d.Name)

	_, ok = c.Find("Nonexistent Dog")
	require.False(t, ok)

	_, err = Parse([]byte(`{"name":`))
	require.Error(t, err)
}
