package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/angch/logrelay/sources"
	"github.com/angch/logrelay/sysstat"
	"gopkg.in/yaml.v3"
)

type SentryConfig struct {
	DSN         string `yaml:"dsn" json:"dsn"`
	Environment string `yaml:"environment" json:"environment"`
	Release     string `yaml:"release" json:"release"`
}

type Config struct {
	Tool         string       `yaml:"tool" json:"tool"`                   // logcat, dmesg, journalctl, command
	Command      string       `yaml:"command" json:"command"`             // stream command line for tool=command
	ClearCommand string       `yaml:"clear_command" json:"clear_command"` // clear command line for tool=command
	Sentry       SentryConfig `yaml:"sentry" json:"sentry"`
	MetricsPort  int          `yaml:"metrics_port" json:"metrics_port"`
	Verbose      bool         `yaml:"verbose" json:"verbose"`

	// Set from flags only.
	ConfigPath string `yaml:"-" json:"-"`
	Status     bool   `yaml:"-" json:"-"`
	Clear      bool   `yaml:"-" json:"-"`
}

const DefaultTool = "logcat"

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	tool         = flag.String("tool", "", "Log tool to relay (logcat, dmesg, journalctl, command)")
	command      = flag.String("command", "", "Stream command line when --tool=command")
	clearCommand = flag.String("clear-command", "", "Clear command line when --tool=command")
	dsn          = flag.String("dsn", os.Getenv("SENTRY_DSN"), "Sentry DSN for error reporting (optional)")
	environment  = flag.String("environment", "production", "Sentry environment")
	release      = flag.String("release", "", "Sentry release version")
	metricsPort  = flag.Int("metrics-port", 0, "Port to expose Prometheus metrics (0 to disable)")
	verbose      = flag.Bool("verbose", false, "Verbose logging")
	status       = flag.Bool("status", false, "List running instances and exit")
	clearLogs    = flag.Bool("clear", false, "Clear the tool's log buffer and exit")
)

// ParseFlags parses the command line flags.
// It must be called before Load.
func ParseFlags() {
	if !flag.Parsed() {
		flag.Usage = func() {
			out := flag.CommandLine.Output()
			fmt.Fprintf(out, "Log Relay\n")
			fmt.Fprintf(out, "Streams a system log tool, drops emulator graphics noise and re-emits the rest.\n\n")
			fmt.Fprintf(out, "Usage:\n  logrelay [flags]\n\n")
			fmt.Fprintf(out, "Examples:\n")
			fmt.Fprintf(out, "  # Relay logcat\n")
			fmt.Fprintf(out, "  logrelay\n\n")
			fmt.Fprintf(out, "  # Relay the kernel ring buffer and report failures to Sentry\n")
			fmt.Fprintf(out, "  logrelay --tool=dmesg --dsn=https://...\n\n")
			fmt.Fprintf(out, "  # Clear the buffer of running instances\n")
			fmt.Fprintf(out, "  logrelay --clear\n\n")
			fmt.Fprintf(out, "Flags:\n")
			flag.PrintDefaults()
		}
		flag.Parse()
	}
}

func Load() (*Config, error) {
	ParseFlags()

	cfg := &Config{
		ConfigPath: *configFile,
		Status:     *status,
		Clear:      *clearLogs,
	}

	if *configFile != "" {
		if *verbose {
			log.Printf("Loading configuration from %s", *configFile)
		}
		fileCfg, err := ReadFile(*configFile)
		if err != nil {
			return nil, err
		}
		fileCfg.ConfigPath = cfg.ConfigPath
		fileCfg.Status = cfg.Status
		fileCfg.Clear = cfg.Clear
		cfg = fileCfg
	}

	// Flags override the config file; the file overrides flag defaults.
	if *tool != "" {
		cfg.Tool = *tool
	}
	if *command != "" {
		cfg.Command = *command
	}
	if *clearCommand != "" {
		cfg.ClearCommand = *clearCommand
	}
	if cfg.Sentry.DSN == "" {
		cfg.Sentry.DSN = *dsn
	}
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = *environment
	}
	if cfg.Sentry.Release == "" {
		cfg.Sentry.Release = *release
	}
	if *metricsPort != 0 {
		cfg.MetricsPort = *metricsPort
	}
	if *verbose {
		cfg.Verbose = true
	}

	if cfg.Tool == "" {
		cfg.Tool = DefaultTool
	}

	return cfg, nil
}

// ReadFile parses a YAML configuration file without applying flags.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Tool == "" {
		cfg.Tool = DefaultTool
	}
	return cfg, nil
}

// Validate checks that the configuration describes a usable tool.
func (c *Config) Validate() error {
	var errs []error

	if !sources.IsKnownTool(c.Tool) {
		errs = append(errs, fmt.Errorf("unknown tool: %s", c.Tool))
	}
	if c.Tool == "command" && strings.TrimSpace(c.Command) == "" {
		errs = append(errs, errors.New("command is required when tool is command"))
	}
	if c.Tool != "command" && (c.Command != "" || c.ClearCommand != "") {
		errs = append(errs, fmt.Errorf("command and clear_command are only valid when tool is command, not %s", c.Tool))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid metrics_port: %d", c.MetricsPort))
	}

	return errors.Join(errs...)
}

// ResolveTool returns the tool profile described by the configuration.
func (c *Config) ResolveTool() (sources.Tool, error) {
	return sources.LookupTool(c.Tool, c.Command, c.ClearCommand)
}

// Redacted returns a copy of the configuration with sensitive fields redacted.
func (c *Config) Redacted() *Config {
	newC := *c

	if newC.Sentry.DSN != "" {
		newC.Sentry.DSN = "***"
	}
	if newC.Command != "" {
		newC.Command = sysstat.SanitizeCommand(strings.Fields(newC.Command))
	}
	if newC.ClearCommand != "" {
		newC.ClearCommand = sysstat.SanitizeCommand(strings.Fields(newC.ClearCommand))
	}

	return &newC
}
