package utils

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAddress(t *testing.T) {
	for in, want := range map[string]string{
		"http://localhost:3000": "localhost:3000",
		"http://example.com":    "example.com:80",
		"https://example.com":   "example.com:443",
	} {
		got, err := dialAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := dialAddress("http://:3000")
	assert.Error(t, err)
}

func TestPingService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	assert.NoError(t, PingService("http://"+addr, time.Second))

	require.NoError(t, ln.Close())
	assert.Error(t, PingService("http://"+addr, 200*time.Millisecond))
}
