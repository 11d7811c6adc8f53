package configuration

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type (
	Properties struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`

		Server  HttpServerProperties `envPrefix:"HTTP_"`
		S3      S3Properties         `envPrefix:"S3_"`
		Auth    AuthProperties       `envPrefix:"AUTH_"`
		Pin     PinProperties        `envPrefix:"PIN_"`
		Report  ReportProperties     `envPrefix:"REPORT_"`
		Catalog CatalogProperties    `envPrefix:"CATALOG_"`
		Upload  UploadProperties     `envPrefix:"UPLOAD_"`
	}

	HttpServerProperties struct {
		Name           string        `env:"NAME" envDefault:"photozone"`
		Port           string        `env:"PORT" envDefault:"8088"`
		ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
		StaticDir      string        `env:"STATIC_DIR"`
		Pprof          bool          `env:"PPROF" envDefault:"false"`
		SessionCookie  string        `env:"SESSION_COOKIE" envDefault:"pz_session"`
		SessionIdle    time.Duration `env:"SESSION_IDLE" envDefault:"2h"`
	}

	S3Properties struct {
		Enabled    bool          `env:"ENABLED" envDefault:"false"`
		Host       string        `env:"HOST" envDefault:"localhost:9000"`
		AccessKey  string        `env:"ACCESS_KEY"`
		SecretKey  string        `env:"SECRET_KEY"`
		Bucket     string        `env:"BUCKET" envDefault:"photozone"`
		UseSSL     bool          `env:"USE_SSL" envDefault:"true"`
		PresignTTL time.Duration `env:"PRESIGN_TTL" envDefault:"168h"`
	}

	// AuthProperties configures the optional staff sign-in through an OIDC
	// provider. The PIN pad works without it.
	AuthProperties struct {
		Enabled  bool   `env:"ENABLED" envDefault:"false"`
		Host     string `env:"HOST" envDefault:"https://gitlab.my.com"`
		ID       string `env:"ID"`
		Secret   string `env:"SECRET"`
		Redirect string `env:"REDIRECT_URL" envDefault:"http://localhost:8088/auth/callback"`
	}

	PinProperties struct {
		Path       string        `env:"PATH" envDefault:"data/pin"`
		Key        string        `env:"KEY" envDefault:"admin_pin"`
		Default    string        `env:"DEFAULT" envDefault:"1234"`
		ResetDelay time.Duration `env:"RESET_DELAY" envDefault:"500ms"`
		GCInterval time.Duration `env:"GC_INTERVAL" envDefault:"10m"`
	}

	ReportProperties struct {
		Delay   time.Duration `env:"DELAY" envDefault:"1500ms"`
		Contact string        `env:"CONTACT" envDefault:"010-1234-5678"`
	}

	CatalogProperties struct {
		SeedFile string `env:"SEED_FILE"`
	}

	UploadProperties struct {
		MaxBytes int64 `env:"MAX_BYTES" envDefault:"10485760"`
		MaxEdge  int   `env:"MAX_EDGE" envDefault:"1920"`
	}
)

// ReadProperties parses the environment into Properties.
func ReadProperties() (*Properties, error) {
	config := &Properties{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	return config, nil
}

// Level maps LOG_LEVEL onto a slog level. Unknown values mean INFO.
func (p *Properties) Level() slog.Level {
	switch strings.ToUpper(p.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
