package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafold/mediafold/clientcli"
)

func TestConfig_WithDefaults(t *testing.T) {
	t.Run("empty endpoint gets default", func(t *testing.T) {
		cfg := (&clientcli.Config{}).WithDefaults()
		assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
	})

	t.Run("set endpoint is kept", func(t *testing.T) {
		cfg := (&clientcli.Config{Endpoint: "http://gallery.example.com"}).WithDefaults()
		assert.Equal(t, "http://gallery.example.com", cfg.Endpoint)
	})
}

func TestConfig_ValidateWithAuth(t *testing.T) {
	t.Run("valid config with auth", func(t *testing.T) {
		cfg := &clientcli.Config{
			Endpoint: "http://localhost:8080",
			Username: "admin",
			Password: "letmein",
		}
		assert.NoError(t, cfg.ValidateWithAuth())
	})

	t.Run("missing username", func(t *testing.T) {
		cfg := &clientcli.Config{Password: "letmein"}
		assert.ErrorIs(t, cfg.ValidateWithAuth(), clientcli.ErrUsernameRequired)
	})

	t.Run("missing password", func(t *testing.T) {
		cfg := &clientcli.Config{Username: "admin"}
		assert.ErrorIs(t, cfg.ValidateWithAuth(), clientcli.ErrPasswordRequired)
	})
}

func TestConfigFile_Profiles(t *testing.T) {
	t.Run("get by name", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:8080"},
			{Name: "prod", Endpoint: "https://gallery.example.com"},
		}}

		p, err := cf.GetProfile("prod")
		require.NoError(t, err)
		assert.Equal(t, "https://gallery.example.com", p.Endpoint)
	})

	t.Run("get unknown name", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{{Name: "local"}}}

		_, err := cf.GetProfile("missing")
		assert.ErrorIs(t, err, clientcli.ErrProfileNotFound)
	})

	t.Run("empty name falls back to default", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local"},
			{Name: "prod", Default: true},
		}}

		p, err := cf.GetProfile("")
		require.NoError(t, err)
		assert.Equal(t, "prod", p.Name)
	})

	t.Run("no default marked uses first", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local"},
			{Name: "prod"},
		}}

		p, err := cf.GetDefaultProfile()
		require.NoError(t, err)
		assert.Equal(t, "local", p.Name)
	})

	t.Run("no profiles", func(t *testing.T) {
		cf := &clientcli.ConfigFile{}

		_, err := cf.GetProfile("any")
		assert.ErrorIs(t, err, clientcli.ErrNoProfiles)
	})

	t.Run("add then update", func(t *testing.T) {
		cf := &clientcli.ConfigFile{}

		require.NoError(t, cf.AddProfile(clientcli.Profile{Name: "local", Endpoint: "http://a"}))
		assert.ErrorIs(t, cf.AddProfile(clientcli.Profile{Name: "local"}), clientcli.ErrProfileExists)

		require.NoError(t, cf.UpdateProfile(clientcli.Profile{Name: "local", Endpoint: "http://b"}))
		p, err := cf.GetProfile("local")
		require.NoError(t, err)
		assert.Equal(t, "http://b", p.Endpoint)

		assert.ErrorIs(t, cf.UpdateProfile(clientcli.Profile{Name: "other"}), clientcli.ErrProfileNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local"},
			{Name: "prod"},
		}}

		require.NoError(t, cf.RemoveProfile("local"))
		assert.Equal(t, []string{"prod"}, cf.ProfileNames())
		assert.ErrorIs(t, cf.RemoveProfile("local"), clientcli.ErrProfileNotFound)
	})

	t.Run("set default clears previous", func(t *testing.T) {
		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", Default: true},
			{Name: "prod"},
		}}

		require.NoError(t, cf.SetDefault("prod"))
		assert.False(t, cf.Profiles[0].Default)
		assert.True(t, cf.Profiles[1].Default)

		assert.ErrorIs(t, cf.SetDefault("missing"), clientcli.ErrProfileNotFound)
	})
}

func TestConfigFile_SaveAndLoad(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.yaml")

		cf := &clientcli.ConfigFile{Profiles: []clientcli.Profile{
			{Name: "local", Endpoint: "http://localhost:8080", Username: "admin", Password: "letmein", Default: true},
		}}
		require.NoError(t, cf.Save(configPath))

		loaded, err := clientcli.LoadConfigFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, cf.Profiles, loaded.Profiles)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(`profiles: [bad: yaml`), 0o600))

		_, err := clientcli.LoadConfigFile(configPath)
		assert.Error(t, err)
	})
}

func TestConfigFromProfile(t *testing.T) {
	t.Run("copies credentials", func(t *testing.T) {
		cfg := clientcli.ConfigFromProfile(&clientcli.Profile{
			Name:     "prod",
			Endpoint: "https://gallery.example.com",
			Username: "admin",
			Password: "letmein",
		})
		assert.Equal(t, "https://gallery.example.com", cfg.Endpoint)
		assert.Equal(t, "admin", cfg.Username)
		assert.Equal(t, "letmein", cfg.Password)
	})

	t.Run("nil profile", func(t *testing.T) {
		cfg := clientcli.ConfigFromProfile(nil)
		assert.Equal(t, &clientcli.Config{}, cfg)
	})
}

func TestMergeConfig(t *testing.T) {
	tests := []struct {
		name     string
		configs  []*clientcli.Config
		expected *clientcli.Config
	}{
		{
			name:     "empty configs",
			configs:  []*clientcli.Config{},
			expected: &clientcli.Config{},
		},
		{
			name: "single config",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Username: "u1", Password: "p1"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Username: "u1", Password: "p1"},
		},
		{
			name: "later config overrides",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Username: "u1", Password: "p1"},
				{Endpoint: "http://b.com", Username: "u2"},
			},
			expected: &clientcli.Config{Endpoint: "http://b.com", Username: "u2", Password: "p1"},
		},
		{
			name: "empty strings do not override",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com", Username: "u1", Password: "p1"},
				{Endpoint: "", Username: "", Password: ""},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Username: "u1", Password: "p1"},
		},
		{
			name: "nil config is skipped",
			configs: []*clientcli.Config{
				{Endpoint: "http://a.com"},
				nil,
				{Username: "u2"},
			},
			expected: &clientcli.Config{Endpoint: "http://a.com", Username: "u2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := clientcli.MergeConfig(tt.configs...)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MEDIAFOLD_ENDPOINT", "http://test.example.com")
	t.Setenv("MEDIAFOLD_USERNAME", "env-user")
	t.Setenv("MEDIAFOLD_PASSWORD", "env-pass")

	cfg := clientcli.ConfigFromEnv()

	assert.Equal(t, "http://test.example.com", cfg.Endpoint)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-pass", cfg.Password)
}

func TestProfileFromEnv(t *testing.T) {
	t.Setenv("MEDIAFOLD_PROFILE", "staging")
	assert.Equal(t, "staging", clientcli.ProfileFromEnv())
}
