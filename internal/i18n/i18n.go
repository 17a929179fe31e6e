// Package i18n loads the embedded message catalogs and renders bot texts.
package i18n

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

//go:embed locales/*.json
var localeFS embed.FS

// Data is the template data passed to a message.
type Data = map[string]any

// Translator renders messages for a single language.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	Languages []string
}

// New loads every embedded locale and returns a translator for lang.
func New(lang string) *Translator {
	bundle := i18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc(config.LocaleFormat, json.Unmarshal)

	tr := &Translator{bundle: bundle}

	entries, err := localeFS.ReadDir(config.LocalesDir)
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, config.LocalePrefix) || !strings.HasSuffix(name, config.LocaleSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, config.LocalePrefix), config.LocaleSuffix)
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, config.LocalesDir+"/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		tr.Languages = append(tr.Languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	tr.localizer = i18n.NewLocalizer(bundle, lang)
	return tr
}

// T translates key, falling back to the key itself when it is missing.
func (tr *Translator) T(key string, data Data) string {
	return tr.localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
}

// Plural translates a message with plural forms selected by count.
// Count is also exposed to the template.
func (tr *Translator) Plural(key string, count int) string {
	return tr.localize(&i18n.LocalizeConfig{
		MessageID:    key,
		PluralCount:  count,
		TemplateData: Data{"Count": count},
	})
}

// DayMonth renders a birthday as a localized "day month" text, e.g. "March 1" or "1 марта".
func (tr *Translator) DayMonth(month time.Month, day int) string {
	return tr.T(config.TKeyDateDayMonth, Data{
		"Day":   day,
		"Month": tr.T(config.TKeyMonthPrefix+strconv.Itoa(int(month)), nil),
	})
}

func (tr *Translator) localize(lc *i18n.LocalizeConfig) string {
	if tr == nil || tr.localizer == nil {
		return lc.MessageID
	}
	msg, err := tr.localizer.Localize(lc)
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, lc.MessageID,
			config.LogKeyError, err,
		)
		// The default language may still have provided a fallback.
		if msg == "" {
			return lc.MessageID
		}
	}
	return msg
}
