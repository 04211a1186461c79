// Command cookiewatch authenticates one browser session against an
// SSO-protected portal and observes how the portal's cookies behave over
// a bounded window: rotations, expiry changes, disappearances, and
// whether the session survives the expected duration.
//
// Invocation (positional, durations in whole seconds):
//
//	cookiewatch <url> <total> <interval> <login-timeout> <action-timeout> <settle-delay>
//
// Every duration can also be supplied by labeled flag or by a YAML file
// (-config); labeled values take precedence over positional ones.
// Credentials come from COOKIEWATCH_USERNAME / COOKIEWATCH_PASSWORD or
// the OS keyring, and are never echoed or written to the report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jl-0/automated-cookie-eval/pkg/auth"
	"github.com/jl-0/automated-cookie-eval/pkg/browser"
	"github.com/jl-0/automated-cookie-eval/pkg/config"
	"github.com/jl-0/automated-cookie-eval/pkg/cookiejar"
	"github.com/jl-0/automated-cookie-eval/pkg/logging"
	"github.com/jl-0/automated-cookie-eval/pkg/monitor"
	"github.com/jl-0/automated-cookie-eval/pkg/report"
	"github.com/jl-0/automated-cookie-eval/pkg/secrets"
)

const version = "0.1.0"

// Exit codes. Aborted is a warning, not a failure: an early expiration
// is exactly the outcome the tool exists to detect.
const (
	exitOK      = 0
	exitFailure = 1
	exitAborted = 2
)

type cliFlags struct {
	url           string
	total         int
	interval      int
	loginTimeout  int
	actionTimeout int
	settleDelay   int
	configFile    string
	headed        bool
	showVersion   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("cookiewatch", flag.ExitOnError)
	flags := parseFlags(fs, os.Args[1:])

	if flags.showVersion {
		fmt.Printf("cookiewatch v%s\n", version)
		return exitOK
	}

	cfg, err := buildConfig(flags, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitFailure
	}

	creds, err := secrets.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "credential error: %v\n", err)
		return exitFailure
	}

	log, logErr := logging.NewLogger("cookiewatch")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", logErr)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runMonitor(ctx, cfg, creds, log)
}

func parseFlags(fs *flag.FlagSet, args []string) *cliFlags {
	flags := &cliFlags{}

	fs.StringVar(&flags.url, "url", "", "target portal URL")
	fs.IntVar(&flags.total, "total", 0, "total observation window (seconds)")
	fs.IntVar(&flags.interval, "interval", 0, "sampling interval (seconds)")
	fs.IntVar(&flags.loginTimeout, "login-timeout", 0, "login ceremony timeout (seconds)")
	fs.IntVar(&flags.actionTimeout, "action-timeout", 0, "per-action browser timeout (seconds)")
	fs.IntVar(&flags.settleDelay, "settle-delay", 0, "settle delay before retrying a transient read (seconds)")
	fs.StringVar(&flags.configFile, "config", "", "labeled YAML parameter file")
	fs.BoolVar(&flags.headed, "headed", false, "launch a visible browser window")
	fs.BoolVar(&flags.showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "cookiewatch - observe an authenticated session's cookie lifecycle\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  cookiewatch [flags] <url> <total> <interval> <login-timeout> <action-timeout> <settle-delay>\n")
		fmt.Fprintf(os.Stderr, "  cookiewatch -config run.yaml [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Durations are whole seconds. Labeled flags and the config file\n")
		fmt.Fprintf(os.Stderr, "override positional values.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  %s  portal username\n", secrets.EnvUsername)
		fmt.Fprintf(os.Stderr, "  %s  portal password\n", secrets.EnvPassword)
		fmt.Fprintf(os.Stderr, "\nExit status: 0 window completed, 2 session expired early, 1 failure.\n")
	}

	fs.Parse(args)
	return flags
}

// buildConfig layers the three parameter sources: positional arguments,
// then the YAML file, then explicitly set labeled flags.
func buildConfig(flags *cliFlags, fs *flag.FlagSet) (*config.Config, error) {
	cfg := &config.Config{}

	if args := fs.Args(); len(args) > 0 {
		positional, err := config.FromPositional(args)
		if err != nil {
			return nil, err
		}
		cfg = positional
	}

	if flags.configFile != "" {
		if err := cfg.MergeFile(flags.configFile); err != nil {
			return nil, err
		}
	}

	seconds := func(v int) time.Duration { return time.Duration(v) * time.Second }
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.TargetURL = flags.url
		case "total":
			cfg.TotalDuration = seconds(flags.total)
		case "interval":
			cfg.PollInterval = seconds(flags.interval)
		case "login-timeout":
			cfg.LoginTimeout = seconds(flags.loginTimeout)
		case "action-timeout":
			cfg.ActionTimeout = seconds(flags.actionTimeout)
		case "settle-delay":
			cfg.SettleDelay = seconds(flags.settleDelay)
		case "headed":
			cfg.Headed = flags.headed
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMonitor(ctx context.Context, cfg *config.Config, creds secrets.Credentials, log *logging.Logger) int {
	log.Infof("launching browser session for %s", cfg.TargetURL)
	session, err := browser.Launch(browser.Options{
		Headed:            cfg.Headed,
		ActionTimeout:     cfg.ActionTimeout,
		IgnoreHTTPSErrors: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "browser launch failed: %v\n", err)
		log.Errorf("browser launch failed: %v", err)
		return exitFailure
	}
	// The session is closed on every exit path, including interrupt.
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			log.Warnf("session teardown: %v", closeErr)
		}
	}()

	authenticator := auth.New(session, auth.Options{
		TargetURL:     cfg.TargetURL,
		LoginTimeout:  cfg.LoginTimeout,
		ActionTimeout: cfg.ActionTimeout,
		SettleDelay:   cfg.SettleDelay,
	}, log)

	result, err := authenticator.Login(ctx, creds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		log.Errorf("login failed: %v", err)
		return exitFailure
	}

	sampler := cookiejar.NewSampler(session, cfg.TargetURL)
	mon := monitor.New(sampler, monitor.Options{
		TargetURL:      cfg.TargetURL,
		TotalDuration:  cfg.TotalDuration,
		PollInterval:   cfg.PollInterval,
		SettleDelay:    cfg.SettleDelay,
		SessionCookies: result.SessionCookies,
	}, log)

	timeline, runErr := mon.Run(ctx)

	// Partial observations are still worth reporting, whatever ended
	// the run.
	if renderErr := report.Render(os.Stdout, timeline); renderErr != nil {
		log.Errorf("report rendering failed: %v", renderErr)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted")
			return exitFailure
		}
		fmt.Fprintf(os.Stderr, "%v\n", runErr)
		log.Errorf("monitor run failed: %v", runErr)
		return exitFailure
	}

	if timeline.Outcome == monitor.OutcomeAborted {
		return exitAborted
	}
	return exitOK
}
