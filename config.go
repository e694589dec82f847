package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/buchstabensalat/salad/internal/challenge"
)

const envPrefix = "SALAD"

type Config struct {
	// shared
	challengeSeconds int
	dbPath           string
	logLevel         string
	words            string

	// serve
	clientOrigin string
	cookieName   string
	jwtExpires   time.Duration
	jwtSecret    string
	moveBurst    int
	moveRPS      int
	port         int
	production   bool
	publicURL    string
	sessionIdle  time.Duration

	// play
	logFile string
}

func (c *Config) validate() error {
	if _, err := zerolog.ParseLevel(c.logLevel); err != nil {
		return fmt.Errorf("invalid --log-level %q", c.logLevel)
	}
	if c.challengeSeconds <= challenge.WarningAt {
		return fmt.Errorf("--challenge-seconds must be greater than %d: %d", challenge.WarningAt, c.challengeSeconds)
	}
	return nil
}

func (c *Config) validateServe() error {
	if err := c.validate(); err != nil {
		return err
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.moveRPS < 1 || c.moveBurst < 1 {
		return errors.New("--move-rps and --move-burst must be positive")
	}
	if c.production && c.jwtSecret == "" {
		return errors.New("--jwt-secret is required with --production")
	}
	return nil
}

// bindEnv lets SALAD_<FLAG_NAME> provide any flag not given on the command
// line.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "salad",
		Short:         "Buchstabensalat: unscramble German words in the browser or the terminal.",
		Args:          cobra.NoArgs,
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	pfs := root.PersistentFlags()
	pfs.IntVar(&cfg.challengeSeconds, "challenge-seconds", challenge.DefaultDuration, "challenge countdown length (env: SALAD_CHALLENGE_SECONDS)")
	pfs.StringVar(&cfg.dbPath, "db", "./data/salad.db", "SQLite database file (env: SALAD_DB)")
	pfs.StringVar(&cfg.logLevel, "log-level", "info", "trace|debug|info|warn|error (env: SALAD_LOG_LEVEL)")
	pfs.StringVar(&cfg.words, "words", "", "word list file, one word per line; empty uses the bundled list (env: SALAD_WORDS)")
	bindEnv(v, pfs)

	root.AddCommand(newServeCmd(cfg, v), newPlayCmd(cfg, v))

	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	root.SetVersionTemplate("salad v{{.Version}}\n")

	return root
}

func newServeCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateServe(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.clientOrigin, "client-origin", "http://localhost:5173", "allowed CORS origin (env: SALAD_CLIENT_ORIGIN)")
	fs.StringVar(&cfg.cookieName, "cookie-name", "salad_token", "auth cookie name (env: SALAD_COOKIE_NAME)")
	fs.DurationVar(&cfg.jwtExpires, "jwt-expires", 14*24*time.Hour, "token lifetime (env: SALAD_JWT_EXPIRES)")
	fs.StringVar(&cfg.jwtSecret, "jwt-secret", "", "token signing secret (env: SALAD_JWT_SECRET)")
	fs.IntVar(&cfg.moveBurst, "move-burst", 20, "move requests allowed in a burst per client (env: SALAD_MOVE_BURST)")
	fs.IntVar(&cfg.moveRPS, "move-rps", 10, "sustained move requests per second per client (env: SALAD_MOVE_RPS)")
	fs.IntVarP(&cfg.port, "port", "p", 5175, "port to listen on (env: SALAD_PORT)")
	fs.BoolVar(&cfg.production, "production", false, "secure cookies, require --jwt-secret (env: SALAD_PRODUCTION)")
	fs.StringVar(&cfg.publicURL, "public-url", "", "URL encoded in /share.png; defaults to --client-origin (env: SALAD_PUBLIC_URL)")
	fs.DurationVar(&cfg.sessionIdle, "session-idle", 2*time.Hour, "drop sessions idle for this long (env: SALAD_SESSION_IDLE)")
	bindEnv(v, fs)

	return cmd
}

func newPlayCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return play(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.logFile, "log-file", "salad.log", "write logs here instead of the terminal; empty discards them (env: SALAD_LOG_FILE)")
	bindEnv(v, fs)

	return cmd
}
