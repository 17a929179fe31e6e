package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tartampluch/go-birthday-bot/internal/bot"
	"github.com/tartampluch/go-birthday-bot/internal/calendar"
	"github.com/tartampluch/go-birthday-bot/internal/config"
	"github.com/tartampluch/go-birthday-bot/internal/engine"
	"github.com/tartampluch/go-birthday-bot/internal/i18n"
	"github.com/tartampluch/go-birthday-bot/internal/notify"
	"github.com/tartampluch/go-birthday-bot/internal/server"
	"github.com/tartampluch/go-birthday-bot/internal/store"
	"github.com/tartampluch/go-birthday-bot/internal/telegram"
)

// main delegates to runMain so deferred calls run before os.Exit.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. CLI Argument Parsing
	// -------------------------------------------------------------------------
	showVersion := flag.Bool(config.FlagVersion, false, config.FlagDescVersion)
	debugMode := flag.Bool(config.FlagDebug, false, config.FlagDescDebug)
	storeToken := flag.Bool(config.FlagStoreToken, false, config.FlagDescStoreToken)
	flag.Parse()

	if *showVersion {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	logCloser := setupLogging(*debugMode)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close()
		}()
	}

	if *storeToken {
		if err := storeTokenFrom(os.Stdin); err != nil {
			slog.Error(config.ErrAppFailed,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
			return config.ExitCodeError
		}
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	if err := run(ctx, *debugMode); err != nil {
		slog.Error(config.ErrAppFailed,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, err,
		)
		return config.ExitCodeError
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return config.ExitCodeSuccess
}

// run wires the collaborators and blocks until ctx is cancelled.
func run(ctx context.Context, debug bool) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	token, err := settings.ResolveToken()
	if err != nil {
		return err
	}
	loc, err := settings.Location()
	if err != nil {
		return err
	}

	clock := engine.RealClock{Location: loc}
	tr := i18n.New(settings.Language)

	// Feeds are optional; without a port nothing listens.
	var feeds *server.FeedServer
	var observers []engine.Observer
	if settings.FeedPort != "" {
		feeds = server.NewFeedServer(settings.FeedPort)
		observers = append(observers, &calendar.Publisher{
			Target: feeds,
			Clock:  clock,
			Summary: func(name string) string {
				return tr.T(config.TKeyEvtSummary, i18n.Data{"Name": name})
			},
			Description: tr.T(config.TKeyEvtDescription, nil),
		})
	}

	core, err := engine.NewCore(store.NewFile(settings.DataFile), clock, observers...)
	if err != nil {
		return err
	}

	client, err := telegram.New(token, debug)
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(client)
	dispatcher.Attempts = settings.SendAttempts
	dispatcher.InitialDelay = settings.SendDelay

	b := bot.New(bot.Options{
		Core:       core,
		Translator: tr,
		Messenger:  client,
		Notifier:   dispatcher,
		Auth: bot.Authorizer{
			AdminChatID:  settings.AdminChatID,
			AdminUserIDs: settings.AdminUserIDs,
		},
		PaymentDetails: settings.PaymentDetails,
		FlashTTL:       settings.FlashTTL,
	})

	g, gctx := errgroup.WithContext(ctx)
	if feeds != nil {
		g.Go(func() error { return feeds.Start(gctx) })
	}
	g.Go(func() error {
		b.Run(gctx, client.Events(gctx))
		return nil
	})
	err = g.Wait()

	slog.Info(config.MsgWaitDeliveries, config.LogKeyComponent, config.CompMain)
	b.Wait()
	return err
}

// storeTokenFrom reads one line from r and saves it in the OS keyring.
func storeTokenFrom(r io.Reader) error {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("%s: %w", config.ErrReadToken, err)
		}
		return errors.New(config.ErrTokenMissing)
	}
	token := strings.TrimSpace(sc.Text())
	if token == "" {
		return errors.New(config.ErrTokenMissing)
	}
	return config.StoreToken(token)
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger: stdout plus a log file in the user cache dir.
func setupLogging(debugMode bool) io.Closer {
	writers := []io.Writer{os.Stdout}
	var logFile *os.File

	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
