// Package config loads the settings shared by the voxguide binaries.
// Defaults are overridden by the environment (and an optional env file),
// which in turn is overridden by command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
)

type Config struct {
	LogLevel string `env:"VOXGUIDE_LOG" envDefault:"info"`
	// Catalog is an optional YAML command catalog replacing the built-in one.
	Catalog string `env:"VOXGUIDE_CATALOG"`
	Socket  string `env:"VOXGUIDE_SOCKET" envDefault:"/tmp/voxguide.sock"`

	Hub      Hub
	Speech   Speech
	Audio    Audio
	Notify   Notify
	Fallback Fallback

	MetricsAddr string `env:"VOXGUIDE_METRICS_ADDR"`
}

// Hub is the websocket relay shared with the UI. An empty URL disables the
// bridge.
type Hub struct {
	URL       string        `env:"VOXGUIDE_HUB_URL"`
	Shard     string        `env:"VOXGUIDE_SHARD" envDefault:"VOX"`
	UIShard   string        `env:"VOXGUIDE_UI_SHARD" envDefault:"UI"`
	Reconnect time.Duration `env:"VOXGUIDE_RECONNECT" envDefault:"2s"`
}

type Speech struct {
	Language string  `env:"VOXGUIDE_VOICE_LANG" envDefault:"en"`
	Gender   string  `env:"VOXGUIDE_VOICE_GENDER"`
	Rate     float64 `env:"VOXGUIDE_VOICE_RATE" envDefault:"0.9"`
	Pitch    float64 `env:"VOXGUIDE_VOICE_PITCH" envDefault:"1"`
	Volume   float64 `env:"VOXGUIDE_VOICE_VOLUME" envDefault:"0.8"`
	Duck     bool    `env:"VOXGUIDE_DUCK" envDefault:"true"`
}

type Audio struct {
	WhisperModel string        `env:"VOXGUIDE_WHISPER_MODEL" envDefault:"third_party/whisper.cpp/models/ggml-base.en.bin"`
	Language     string        `env:"VOXGUIDE_WHISPER_LANG" envDefault:"en"`
	Threads      int           `env:"VOXGUIDE_WHISPER_THREADS"`
	Translate    bool          `env:"VOXGUIDE_WHISPER_TRANSLATE"`
	BeamSize     int           `env:"VOXGUIDE_WHISPER_BEAM"`
	Temperature  float32       `env:"VOXGUIDE_WHISPER_TEMPERATURE"`
	Files        []string      `env:"VOXGUIDE_INPUT_FILES" envSeparator:","`
	Loop         bool          `env:"VOXGUIDE_INPUT_LOOP"`
	MaxTurn      time.Duration `env:"VOXGUIDE_MAX_TURN" envDefault:"15s"`
}

type Notify struct {
	Desktop    bool   `env:"VOXGUIDE_DESKTOP_NOTIFY" envDefault:"true"`
	InfoChime  string `env:"VOXGUIDE_INFO_CHIME"`
	ErrorChime string `env:"VOXGUIDE_ERROR_CHIME"`
}

// Fallback configures the LLM classifier. It is enabled only when an API
// key is present.
type Fallback struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	Model   string        `env:"VOXGUIDE_FALLBACK_MODEL"`
	Proxy   string        `env:"VOXGUIDE_PROXY"`
	Timeout time.Duration `env:"VOXGUIDE_FALLBACK_TIMEOUT" envDefault:"10s"`
}

func (f Fallback) Enabled() bool { return f.APIKey != "" }

// Load builds the configuration from args (without the program name) and
// environ, the process environment in "KEY=value" form.
func Load(name string, args, environ []string) (*Config, error) {
	var cfg Config
	envFile := ".env"

	// first pass only finds the env file and catches bad flags early
	if err := newFlagSet(name, &cfg, &envFile).Parse(args); err != nil {
		return nil, err
	}

	vars, err := environment(envFile, environ)
	if err != nil {
		return nil, err
	}

	cfg = Config{}
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := newFlagSet(name, &cfg, &envFile).Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// environment merges the env file under the process environment. A missing
// env file is not an error.
func environment(envFile string, environ []string) (map[string]string, error) {
	vars := make(map[string]string, len(environ))

	if envFile != "" {
		file, err := godotenv.Read(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		default:
			for k, v := range file {
				vars[k] = v
			}
		}
	}

	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return vars, nil
}

func newFlagSet(name string, c *Config, envFile *string) *cli.FlagSet {
	flags := cli.NewFlagSet(name, cli.ContinueOnError)
	flags.SortFlags = false

	flags.StringVarP(envFile, "env", "e", *envFile, "Env file path")
	flags.StringVarP(&c.LogLevel, "log", "l", c.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVarP(&c.Catalog, "catalog", "c", c.Catalog, "YAML command catalog")
	flags.StringVarP(&c.Socket, "socket", "s", c.Socket, "Control socket path")

	flags.StringVarP(&c.Hub.URL, "url", "u", c.Hub.URL, "Url of hub")
	flags.StringVar(&c.Hub.Shard, "shard", c.Hub.Shard, "Shard name on the hub")
	flags.StringVar(&c.Hub.UIShard, "ui-shard", c.Hub.UIShard, "Shard name of the UI")
	flags.DurationVar(&c.Hub.Reconnect, "reconnect", c.Hub.Reconnect, "Delay between hub reconnects")

	flags.StringVar(&c.Speech.Language, "voice-lang", c.Speech.Language, "Speech language")
	flags.StringVar(&c.Speech.Gender, "voice-gender", c.Speech.Gender, "Speech voice (male, female)")
	flags.Float64Var(&c.Speech.Rate, "voice-rate", c.Speech.Rate, "Speech rate (0..2)")
	flags.Float64Var(&c.Speech.Pitch, "voice-pitch", c.Speech.Pitch, "Speech pitch (0..2)")
	flags.Float64Var(&c.Speech.Volume, "voice-volume", c.Speech.Volume, "Speech volume (0..2)")
	flags.BoolVar(&c.Speech.Duck, "duck", c.Speech.Duck, "Lower other audio while speaking")

	flags.StringVarP(&c.Audio.WhisperModel, "model", "m", c.Audio.WhisperModel, "Whisper model path")
	flags.StringVar(&c.Audio.Language, "lang", c.Audio.Language, "Recognition language or auto")
	flags.IntVar(&c.Audio.Threads, "threads", c.Audio.Threads, "Whisper threads, 0 for all cores")
	flags.BoolVar(&c.Audio.Translate, "translate", c.Audio.Translate, "Translate speech to English before matching")
	flags.IntVar(&c.Audio.BeamSize, "beam", c.Audio.BeamSize, "Whisper beam size, 0 for greedy decoding")
	flags.Float32Var(&c.Audio.Temperature, "temperature", c.Audio.Temperature, "Whisper sampling temperature")
	flags.StringSliceVarP(&c.Audio.Files, "input", "i", c.Audio.Files, "Audio files used instead of the microphone")
	flags.BoolVar(&c.Audio.Loop, "loop", c.Audio.Loop, "Loop over input files")
	flags.DurationVar(&c.Audio.MaxTurn, "max-turn", c.Audio.MaxTurn, "Longest listening turn")

	flags.BoolVar(&c.Notify.Desktop, "notify", c.Notify.Desktop, "Send desktop notifications")
	flags.StringVar(&c.Notify.InfoChime, "info-chime", c.Notify.InfoChime, "Chime played on success")
	flags.StringVar(&c.Notify.ErrorChime, "error-chime", c.Notify.ErrorChime, "Chime played on errors")

	flags.StringVar(&c.Fallback.Model, "fallback-model", c.Fallback.Model, "Model of the fallback classifier")
	flags.StringVarP(&c.Fallback.Proxy, "proxy", "p", c.Fallback.Proxy, "Socks proxy address for the classifier")
	flags.DurationVar(&c.Fallback.Timeout, "fallback-timeout", c.Fallback.Timeout, "Fallback classifier timeout")

	flags.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Address of the /metrics endpoint")

	return flags
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Speech.Gender {
	case "", "male", "female":
	default:
		errs = append(errs, fmt.Errorf("voice gender must be male or female, got %q", c.Speech.Gender))
	}
	for name, v := range map[string]float64{
		"rate":   c.Speech.Rate,
		"pitch":  c.Speech.Pitch,
		"volume": c.Speech.Volume,
	} {
		if v < 0 || v > 2 {
			errs = append(errs, fmt.Errorf("voice %s must be within 0..2, got %g", name, v))
		}
	}
	if c.Hub.URL != "" && c.Hub.Reconnect <= 0 {
		errs = append(errs, errors.New("reconnect delay must be positive"))
	}
	if c.Audio.BeamSize < 0 {
		errs = append(errs, errors.New("beam size must not be negative"))
	}
	if c.Audio.Temperature < 0 {
		errs = append(errs, errors.New("temperature must not be negative"))
	}
	if c.Audio.MaxTurn < 0 {
		errs = append(errs, errors.New("max turn must not be negative"))
	}
	if c.Fallback.Timeout <= 0 {
		errs = append(errs, errors.New("fallback timeout must be positive"))
	}

	return errors.Join(errs...)
}
