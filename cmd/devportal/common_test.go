package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/require"
)

// useConfigHome points the XDG config lookup at a fresh directory for the
// duration of the test.
func useConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(dir, "system"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return dir
}

func TestLoadAppConfig(t *testing.T) {
	testCases := []struct {
		name       string
		setup      func(t *testing.T, configHome string) string
		assertions func(*testing.T, error, string)
	}{
		{
			name: "no path and no user config",
			setup: func(*testing.T, string) string {
				return ""
			},
			assertions: func(t *testing.T, err error, kubeconfig string) {
				require.NoError(t, err)
				require.Empty(t, kubeconfig)
			},
		},
		{
			name: "no path falls back to user config",
			setup: func(t *testing.T, configHome string) string {
				path := filepath.Join(configHome, userConfigFile)
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
				require.NoError(t, os.WriteFile(
					path,
					[]byte("kubernetes:\n  kubeconfig: /from/xdg\n"),
					0o600,
				))
				return ""
			},
			assertions: func(t *testing.T, err error, kubeconfig string) {
				require.NoError(t, err)
				require.Equal(t, "/from/xdg", kubeconfig)
			},
		},
		{
			name: "explicit path wins",
			setup: func(t *testing.T, configHome string) string {
				userPath := filepath.Join(configHome, userConfigFile)
				require.NoError(t, os.MkdirAll(filepath.Dir(userPath), 0o755))
				require.NoError(t, os.WriteFile(
					userPath,
					[]byte("kubernetes:\n  kubeconfig: /from/xdg\n"),
					0o600,
				))
				path := filepath.Join(t.TempDir(), "app-config.yaml")
				require.NoError(t, os.WriteFile(
					path,
					[]byte("kubernetes:\n  kubeconfig: /from/flag\n"),
					0o600,
				))
				return path
			},
			assertions: func(t *testing.T, err error, kubeconfig string) {
				require.NoError(t, err)
				require.Equal(t, "/from/flag", kubeconfig)
			},
		},
		{
			name: "explicit path missing",
			setup: func(t *testing.T, _ string) string {
				return filepath.Join(t.TempDir(), "missing.yaml")
			},
			assertions: func(t *testing.T, err error, _ string) {
				require.ErrorContains(t, err, "error reading config file")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			path := testCase.setup(t, useConfigHome(t))
			cfg, err := loadAppConfig(path)
			testCase.assertions(t, err, cfg.Kubernetes.Kubeconfig)
		})
	}
}
