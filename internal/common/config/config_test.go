package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 15377, cfg.Port)
	require.False(t, cfg.Network)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("TALKTO_PORT", "9000")
	t.Setenv("TALKTO_NETWORK", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.True(t, cfg.Network)
}

func TestLoad_RejectsPortOutOfRange(t *testing.T) {
	t.Setenv("TALKTO_PORT", "70000")
	_, err := Load()
	require.Error(t, err)
}

func TestDBPath_JoinsDataDirAndFilename(t *testing.T) {
	cfg := &Config{DataDir: "/var/talkto"}
	require.Equal(t, "/var/talkto/talkto.db", cfg.DBPath())
}

func TestAdvertisedBaseURL_UsesLocalhostWhenNotNetwork(t *testing.T) {
	cfg := &Config{Network: false, Port: 15377}
	require.Equal(t, "http://localhost:15377", cfg.AdvertisedBaseURL())
}

func TestAdvertisedBaseURL_NetworkModeKeepsConfiguredPort(t *testing.T) {
	// Exercises the network-mode branch. The host depends on the machine's
	// interfaces (localhost when none is found), so only the port is checked.
	cfg := &Config{Network: true, Port: 15377}
	require.Contains(t, cfg.AdvertisedBaseURL(), ":15377")
}
