package util_test

import (
	"jsonweblog/internal/util"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenFirstFree_SkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	busyPort := busy.Addr().(*net.TCPAddr).Port

	ln, port, err := util.ListenFirstFree("127.0.0.1", busyPort, 20)
	if err != nil {
		t.Skipf("no free port near %d: %v", busyPort, err)
	}
	defer ln.Close()

	assert.Greater(t, port, busyPort)
}

func TestListenFirstFree_AllBusy(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	_, _, err = util.ListenFirstFree("127.0.0.1", busy.Addr().(*net.TCPAddr).Port, 1)
	assert.Error(t, err)
}

func TestListenFirstFree_EphemeralPort(t *testing.T) {
	ln, port, err := util.ListenFirstFree("127.0.0.1", 0, 1)
	require.NoError(t, err)
	defer ln.Close()

	assert.NotZero(t, port)
}
