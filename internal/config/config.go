package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "ONBOARDER"

type ProjectConfig struct {
	Project  string         `mapstructure:"project"`
	Version  int            `mapstructure:"version"`
	Building BuildingConfig `mapstructure:"building"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Poll     PollConfig     `mapstructure:"poll"`
	Document Schema         `mapstructure:"document"`
	Database DatabaseConfig `mapstructure:"database"`
}

type BuildingConfig struct {
	Code string `mapstructure:"code"`
}

type RPCConfig struct {
	Binary         string `mapstructure:"binary"`
	Target         string `mapstructure:"target"`
	Service        string `mapstructure:"service"`
	ResourceRoot   string `mapstructure:"resource_root"`
	Profile        string `mapstructure:"profile"`
	ExportDeadline int    `mapstructure:"export_deadline_ms"`
}

type PollConfig struct {
	InitialDelay   time.Duration `mapstructure:"initial_delay"`
	ExportAttempts int           `mapstructure:"export_attempts"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", 1)
	v.SetDefault("rpc.binary", "stubby")
	v.SetDefault("rpc.target", "blade:google.cloud.digitalbuildings.v1alpha1.digitalbuildingsservice-prod")
	v.SetDefault("rpc.service", "google.cloud.digitalbuildings.v1alpha1.DigitalBuildingsService")
	v.SetDefault("rpc.resource_root", "projects/digitalbuildings")
	v.SetDefault("rpc.profile", "projects/digitalbuildings/profiles/MaintenanceOps")
	v.SetDefault("rpc.export_deadline_ms", 60000)
	v.SetDefault("poll.initial_delay", 10*time.Second)
	v.SetDefault("poll.export_attempts", 3)
	v.SetDefault("poll.export_interval", 10*time.Second)
	v.SetDefault("document.metadata_key", DefaultMetadataKey)
	v.SetDefault("document.building_type", DefaultBuildingType)
	v.SetDefault("document.link_strip_fields", []string{"operation", "update_mask"})
}

// Default returns the configuration used when no onboarder.yaml is present.
func Default() *ProjectConfig {
	v := viper.New()
	setDefaults(v)
	var cfg ProjectConfig
	_ = v.Unmarshal(&cfg)
	cfg.Project = "onboarder"
	return &cfg
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if cfg.Building.Code != "" {
		if _, err := ParseBuildingCode(cfg.Building.Code); err != nil {
			return err
		}
	}
	if strings.TrimSpace(cfg.RPC.Binary) == "" {
		return fmt.Errorf("rpc binary is required")
	}
	if strings.TrimSpace(cfg.RPC.Target) == "" || strings.TrimSpace(cfg.RPC.Service) == "" {
		return fmt.Errorf("rpc target and service are required")
	}
	if cfg.Poll.InitialDelay < 0 || cfg.Poll.ExportInterval < 0 {
		return fmt.Errorf("poll delays must not be negative")
	}
	if cfg.Poll.ExportAttempts < 1 {
		return fmt.Errorf("poll export_attempts must be at least 1")
	}
	if err := validateSchema(&cfg.Document); err != nil {
		return err
	}
	if dsn := cfg.Database.DSN; dsn != "" && !strings.HasPrefix(dsn, "sqlite://") &&
		!strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return fmt.Errorf("unsupported database dsn scheme: %s", dsn)
	}
	return nil
}

// IsNotFound reports whether err came from a config file that does not exist.
func IsNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}
