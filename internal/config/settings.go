package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zalando/go-keyring"
)

// Settings holds the runtime configuration read from the environment.
type Settings struct {
	Token          string        `env:"BIRTHDAY_BOT_TOKEN"`
	AdminChatID    int64         `env:"BIRTHDAY_BOT_ADMIN_CHAT_ID"`
	AdminUserIDs   []int64       `env:"BIRTHDAY_BOT_ADMIN_USER_IDS" envSeparator:","`
	PaymentDetails string        `env:"BIRTHDAY_BOT_PAYMENT_DETAILS"`
	DataFile       string        `env:"BIRTHDAY_BOT_DATA_FILE" envDefault:"data.json"`
	Language       string        `env:"BIRTHDAY_BOT_LANGUAGE" envDefault:"ru"`
	Timezone       string        `env:"BIRTHDAY_BOT_TIMEZONE" envDefault:"Local"`
	FeedPort       string        `env:"BIRTHDAY_BOT_FEED_PORT"`
	SendAttempts   uint          `env:"BIRTHDAY_BOT_SEND_ATTEMPTS" envDefault:"4"`
	SendDelay      time.Duration `env:"BIRTHDAY_BOT_SEND_DELAY" envDefault:"1s"`
	FlashTTL       time.Duration `env:"BIRTHDAY_BOT_FLASH_TTL" envDefault:"10s"`
}

// LoadSettings parses the environment and validates the result.
// The bot token is not required here; see ResolveToken.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", ErrParseEnv, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (s Settings) Validate() error {
	if s.AdminChatID == 0 && len(s.AdminUserIDs) == 0 {
		return errors.New(ErrAdminMissing)
	}
	if !slices.Contains(SupportedLanguages, s.Language) {
		return fmt.Errorf("%s: %q", ErrLanguage, s.Language)
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	if s.SendAttempts < 1 {
		return errors.New(ErrSendAttempts)
	}
	return nil
}

// Location resolves the configured timezone used for "today".
func (s Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrTimezone, err)
	}
	return loc, nil
}

// ResolveToken returns the bot token from the environment, falling back to the OS keyring.
func (s Settings) ResolveToken() (string, error) {
	if s.Token != "" {
		return s.Token, nil
	}
	token, err := keyring.Get(KeyringService, KeyringUser)
	if err != nil || token == "" {
		return "", errors.New(ErrTokenMissing)
	}
	slog.Debug(MsgTokenFromRing, LogKeyComponent, CompConfig)
	return token, nil
}

// StoreToken saves the bot token in the OS keyring.
func StoreToken(token string) error {
	if err := keyring.Set(KeyringService, KeyringUser, token); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyringStore, err)
	}
	slog.Info(MsgTokenStored, LogKeyComponent, CompConfig)
	return nil
}
