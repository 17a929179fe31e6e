package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the feed server in response headers.
var UserAgent = "Go-Birthday-Bot/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName        = "Go Birthday Bot"
	AppID          = "com.github.tartampluch.go-birthday-bot"
	KeyringService = "com.github.tartampluch.go-birthday-bot"
	KeyringUser    = "telegram-token"
	LogFileName    = "bot.log"
	FeedBindAddr   = "0.0.0.0"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs and the data document.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion        = "version"
	FlagDebug          = "debug"
	FlagStoreToken     = "store-token"
	FlagDescVersion    = "Show application version and exit"
	FlagDescDebug      = "Enable debug logging to stdout"
	FlagDescStoreToken = "Read a bot token from stdin, store it in the OS keyring and exit"
	MsgVersionOutput   = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Localization
// -----------------------------------------------------------------------------

// SupportedLanguages defines the list of available bot languages (ISO 639-1).
var SupportedLanguages = []string{"en", "ru"}

const (
	DefaultLanguage = "ru"
	LocalesDir      = "locales"
	LocalePrefix    = "active."
	LocaleSuffix    = ".json"
	LocaleFormat    = "json"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	// Registration (private chat)
	TKeyWelcome        = "welcome"
	TKeyGreetNew       = "greet_new" // Requires Name
	TKeyRegistered     = "registered"
	TKeyRegisteredHint = "registered_hint"
	TKeyInvalidDate    = "invalid_date"
	TKeyEmptyName      = "empty_name"

	// Admin panel
	TKeyPanelTitle = "panel_title"
	TKeyBtnStart   = "btn_start"
	TKeyBtnActive  = "btn_active" // Requires Name
	TKeyBtnStatus  = "btn_status"
	TKeyBtnThank   = "btn_thank"
	TKeyBtnRemind  = "btn_remind"
	TKeyBtnEnd     = "btn_end"
	TKeyBtnSend    = "btn_send"
	TKeyBtnYes     = "btn_yes"
	TKeyBtnNo      = "btn_no"
	TKeyBtnBack    = "btn_back"

	// Session flow
	TKeySessionActive    = "session_active" // Requires Name
	TKeyPickSubject      = "pick_subject"
	TKeyNoSubjects       = "no_subjects"
	TKeySubjectChosen    = "subject_chosen" // Requires Name
	TKeyAskAmount        = "ask_amount"
	TKeyAwaitingGift     = "awaiting_gift"
	TKeyAwaitingAmount   = "awaiting_amount"
	TKeyAnnouncement     = "announcement" // Requires Name, Date, Days, Amount, Payment, Gift
	TKeyDaysLeft         = "days_left"    // Plural, requires Count
	TKeyPreview          = "preview"      // Requires Text
	TKeyBroadcastDone    = "broadcast_done"
	TKeyDeliverySummary  = "delivery_summary" // Requires Sent, Failed
	TKeyStatusTitle      = "status_title"     // Requires Name
	TKeyStatusPaid       = "status_paid"      // Requires Name
	TKeyStatusUnpaid     = "status_unpaid"    // Requires Name
	TKeyPickContributor  = "pick_contributor"
	TKeyNoContributors   = "no_contributors"
	TKeyConfirmThank     = "confirm_thank" // Requires Name
	TKeyThankYou         = "thank_you"     // Requires Name
	TKeyThankSent        = "thank_sent"    // Requires Name
	TKeyCancelled        = "cancelled"
	TKeyAllContributed   = "all_contributed"
	TKeyReminder         = "reminder"         // Requires Name, Date, Days, Amount
	TKeyReminderPreview  = "reminder_preview" // Requires Text
	TKeyReminderSent     = "reminder_sent"
	TKeyConfirmEnd       = "confirm_end"   // Requires Name
	TKeySessionEnded     = "session_ended" // Requires Name
	TKeyDateDayMonth     = "date_day_month"
	TKeyMonthPrefix      = "month_"
	TKeyEvtSummary       = "event_summary" // Requires Name
	TKeyEvtDescription   = "event_description"
	TKeyNoSession        = "no_session"
	TKeyInvalidSelection = "invalid_selection"
	TKeyNoRights         = "no_rights"
	TKeyEmptyInput       = "empty_input"
	TKeyInternalError    = "internal_error"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultDataFile     = "data.json"
	DefaultSendAttempts = 4
	DefaultSendDelay    = 1 * time.Second
	DefaultFlashTTL     = 10 * time.Second
	DefaultBroadcastPar = 8 // Concurrent deliveries per fan-out
	DefaultPollTimeout  = 60
	DefaultMaxSendDelay = 30 * time.Second
	UIDSalt             = "go-birthday-bot-v1-" // Salt for deterministic UID generation
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion = "2.0"
	ICalProdid  = "-//Go Birthday Bot//Feed//EN"
	ICalCalName = "Birthdays"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "gobirthdaybot"

	// iCal Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	// vCard Fields
	VCardVersion = "4.0"
	VCardUIDFmt  = "urn:gobirthdaybot:%d"

	DefaultICalRefresh = 1 * time.Hour

	// StubVCalendar is served when the roster has no birthdays yet.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:" + ICalVersion + "\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"
)

// -----------------------------------------------------------------------------
// Data Formats
// -----------------------------------------------------------------------------

const (
	// DateFormatBirthday is the only accepted input layout for birthdays.
	DateFormatBirthday = "2006-01-02"
	DateFormatVCard    = "20060102"
	DatePattern        = `^\d{4}-\d{2}-\d{2}$`

	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%d|%s|%s"
	FormatUID       = "%s-%d@%s"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	RetryAfterSeconds  = "10"
	AllowedMethods     = "GET, HEAD"
	RouteCalendar      = "/birthdays.ics"
	RouteRoster        = "/roster.vcf"
	AddrSeparator      = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderServer          = "Server"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeVCard           = "text/vcard; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrTokenMissing    = "configuration error: bot token is empty and not found in keyring"
	ErrAdminMissing    = "configuration error: neither admin chat nor admin users configured"
	ErrLanguage        = "configuration error: unsupported language"
	ErrTimezone        = "configuration error: unknown timezone"
	ErrSendAttempts    = "configuration error: send attempts must be at least 1"
	ErrParseEnv        = "parse env"
	ErrKeyringStore    = "failed to store token in keyring"
	ErrReadToken       = "failed to read token from stdin"
	ErrPersist         = "failed to persist document"
	ErrLoadDocument    = "failed to load document"
	ErrDecodeDocument  = "failed to decode document"
	ErrEncodeDocument  = "failed to encode document"
	ErrWriteDocument   = "failed to write document"
	ErrDeliveryFailed  = "delivery failed after retries"
	ErrRetractFailed   = "failed to retract message"
	ErrCallbackAck     = "failed to answer callback"
	ErrDecodeCommand   = "malformed command payload"
	ErrTransportInit   = "failed to initialize chat transport"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrPortRequired    = "server port is required"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrVCardEncode     = "failed to encode vCard data"
	ErrFeedBuild       = "failed to build feed"
	ErrLogFile         = "failed to open log file"
	ErrCacheDir        = "could not determine user cache dir"
	ErrCreateDir       = "could not create app cache dir"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrHandleEvent     = "failed to handle event"
	ErrUnknownFeedPath = "unknown feed path"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackSummary = "Birthday: %s"

	MsgAppStarting     = "Starting application"
	MsgAppStop         = "Application stopped gracefully"
	MsgBotReady        = "Bot is running"
	MsgDocCreated      = "No document found, initialized defaults"
	MsgDocLoaded       = "Document loaded"
	MsgDocSaved        = "Document saved"
	MsgParticipantNew  = "Participant created"
	MsgParticipantReg  = "Participant registered birthday"
	MsgInvalidDate     = "Rejected birthday input"
	MsgSessionStarted  = "Session started"
	MsgSessionStep     = "Session transition"
	MsgSessionClosed   = "Session archived"
	MsgContribution    = "Contribution acknowledged"
	MsgRetry           = "Retrying delivery"
	MsgBroadcastDone   = "Fan-out finished"
	MsgUnauthorized    = "Unauthorized admin action"
	MsgIgnoredText     = "Ignoring text outside of an input step"
	MsgIgnoredUpdate   = "Ignoring unsupported update"
	MsgRejected        = "Action rejected"
	MsgCallback        = "Handling admin action"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Feed cache updated"
	MsgFeedsPublished  = "Feeds published"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgTokenStored     = "Token stored in keyring"
	MsgTokenFromRing   = "Bot token loaded from keyring"
	MsgWaitDeliveries  = "Waiting for in-flight deliveries"
	MsgCtxCancel       = "Context cancelled, stopping update loop"
	MsgDeliveryDropped = "Delivery skipped, context cancelled"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent   = "component"
	LogKeyError       = "error"
	LogKeyFile        = "file"
	LogKeyLang        = "lang"
	LogKeyKey         = "key"
	LogKeyPort        = "port"
	LogKeyPath        = "path"
	LogKeyChat        = "chat_id"
	LogKeyUser        = "user_id"
	LogKeyMessage     = "message_id"
	LogKeyParticipant = "participant_id"
	LogKeySubject     = "subject_id"
	LogKeyState       = "state"
	LogKeyFrom        = "from"
	LogKeyTo          = "to"
	LogKeyCommand     = "command"
	LogKeyAttempt     = "attempt"
	LogKeyDelay       = "delay_ms"
	LogKeyRecipients  = "recipients"
	LogKeySent        = "sent"
	LogKeyFailed      = "failed"
	LogKeyCount       = "count"
	LogKeySizeBytes   = "size_bytes"
	LogKeyETag        = "etag"
	LogKeyName        = "name"
	LogKeyValue       = "value"
	LogKeyDuration    = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain     = "main"
	CompConfig   = "config"
	CompEngine   = "engine"
	CompRoster   = "roster"
	CompSession  = "session"
	CompStore    = "store"
	CompNotify   = "notify"
	CompBot      = "bot"
	CompTelegram = "telegram"
	CompCalendar = "calendar"
	CompServer   = "server"
	CompI18n     = "i18n"
)
