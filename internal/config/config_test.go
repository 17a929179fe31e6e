package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/zalando/go-keyring"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"KeyringService", config.KeyringService},
		{"ICalProdid", config.ICalProdid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "Go-Birthday-Bot/"))
}

func TestDefaults_Sanity(t *testing.T) {
	assert.Contains(t, config.SupportedLanguages, config.DefaultLanguage)
	assert.GreaterOrEqual(t, config.DefaultSendAttempts, 1)
	assert.Greater(t, config.DefaultSendDelay, 0*time.Second)
	assert.Greater(t, config.DefaultBroadcastPar, 0)
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("BIRTHDAY_BOT_ADMIN_CHAT_ID", "-4207698059")
	t.Setenv("BIRTHDAY_BOT_TIMEZONE", "UTC")

	s, err := config.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, int64(-4207698059), s.AdminChatID)
	assert.Equal(t, config.DefaultDataFile, s.DataFile)
	assert.Equal(t, config.DefaultLanguage, s.Language)
	assert.Equal(t, uint(config.DefaultSendAttempts), s.SendAttempts)
	assert.Equal(t, config.DefaultSendDelay, s.SendDelay)
	assert.Equal(t, config.DefaultFlashTTL, s.FlashTTL)
	assert.Empty(t, s.FeedPort)
}

func TestLoadSettings_AdminUsersList(t *testing.T) {
	t.Setenv("BIRTHDAY_BOT_ADMIN_USER_IDS", "759435004,42")
	t.Setenv("BIRTHDAY_BOT_TIMEZONE", "UTC")

	s, err := config.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, []int64{759435004, 42}, s.AdminUserIDs)
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "NoAdmin",
			env:     map[string]string{"BIRTHDAY_BOT_TIMEZONE": "UTC"},
			wantErr: config.ErrAdminMissing,
		},
		{
			name: "UnsupportedLanguage",
			env: map[string]string{
				"BIRTHDAY_BOT_ADMIN_CHAT_ID": "1",
				"BIRTHDAY_BOT_LANGUAGE":      "de",
				"BIRTHDAY_BOT_TIMEZONE":      "UTC",
			},
			wantErr: config.ErrLanguage,
		},
		{
			name: "BadTimezone",
			env: map[string]string{
				"BIRTHDAY_BOT_ADMIN_CHAT_ID": "1",
				"BIRTHDAY_BOT_TIMEZONE":      "Mars/Olympus",
			},
			wantErr: config.ErrTimezone,
		},
		{
			name: "ZeroAttempts",
			env: map[string]string{
				"BIRTHDAY_BOT_ADMIN_CHAT_ID": "1",
				"BIRTHDAY_BOT_TIMEZONE":      "UTC",
				"BIRTHDAY_BOT_SEND_ATTEMPTS": "0",
			},
			wantErr: config.ErrSendAttempts,
		},
		{
			name: "MalformedNumber",
			env: map[string]string{
				"BIRTHDAY_BOT_ADMIN_CHAT_ID": "not-a-number",
			},
			wantErr: config.ErrParseEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadSettings()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveToken(t *testing.T) {
	keyring.MockInit()

	t.Run("EnvWins", func(t *testing.T) {
		s := config.Settings{Token: "env-token"}
		token, err := s.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "env-token", token)
	})

	t.Run("MissingEverywhere", func(t *testing.T) {
		_, err := config.Settings{}.ResolveToken()
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrTokenMissing)
	})

	t.Run("KeyringFallback", func(t *testing.T) {
		require.NoError(t, config.StoreToken("ring-token"))
		token, err := config.Settings{}.ResolveToken()
		require.NoError(t, err)
		assert.Equal(t, "ring-token", token)
	})
}
