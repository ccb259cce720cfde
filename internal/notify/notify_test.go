package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCloseWithoutConnection(t *testing.T) {
	n := New("ddc-brightness", "display-brightness-symbolic")
	require.Equal(t, "ddc-brightness", n.AppName)
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
}
