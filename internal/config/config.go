package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Vision   VisionConfig   `yaml:"vision"`
	Tracking TrackingConfig `yaml:"tracking"`
	Matcher  MatcherConfig  `yaml:"matcher"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Task     TaskConfig     `yaml:"task"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir            string  `yaml:"models_dir"`
	DetectionThreshold   float64 `yaml:"detection_threshold"`
	RecognitionThreshold float64 `yaml:"recognition_threshold"`
	DefaultFPS           int     `yaml:"default_fps"`
	MaxFPS               int     `yaml:"max_fps"`
	WorkerCount          int     `yaml:"worker_count"`
	FrameWidth           int     `yaml:"frame_width"`
	// PigoCascade, if set, loads a pigo binary cascade file (e.g.
	// facefinder) and registers it as the "pigo" engine on the "detect"
	// stage alongside RetinaFace's "retinaface" engine. Empty skips
	// loading it — the stage then only offers "retinaface".
	PigoCascade string `yaml:"pigo_cascade"`
}

type TrackingConfig struct {
	MaxAge              int           `yaml:"max_age"`
	MinHits             int           `yaml:"min_hits"`
	ReRecognizeInterval time.Duration `yaml:"re_recognize_interval"`
}

// MatcherConfig tunes the tracker's Matcher: how heavily appearance
// (embedding cosine similarity) is blended against geometric IoU when
// scoring a (src, dst) zone pair, and how its similarity matrix is
// fanned out across Task workers.
type MatcherConfig struct {
	AppearanceWeight float32 `yaml:"appearance_weight"`
	Granularity      string  `yaml:"granularity"`
	Workers          int     `yaml:"workers"`
}

// PipelineConfig toggles optional Stage engines in a StreamPipeline that
// are wired but bypassed unless explicitly requested.
type PipelineConfig struct {
	ClusterEnabled bool    `yaml:"cluster_enabled"`
	ClusterRatio   float32 `yaml:"cluster_ratio"`
	ClusterCross   bool    `yaml:"cluster_cross"`
}

// TaskConfig.Workers is the tracker Matcher's worker count when
// MatcherConfig.Workers is not positive (setDefaults fills a zero
// MatcherConfig.Workers with 8). Zero here leaves the Matcher's own default.
type TaskConfig struct {
	Workers int `yaml:"workers"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Vision.DefaultFPS == 0 {
		cfg.Vision.DefaultFPS = 5
	}
	if cfg.Vision.MaxFPS == 0 {
		cfg.Vision.MaxFPS = 10
	}
	if cfg.Vision.WorkerCount == 0 {
		cfg.Vision.WorkerCount = 6
	}
	if cfg.Vision.FrameWidth == 0 {
		cfg.Vision.FrameWidth = 640
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.5
	}
	if cfg.Vision.RecognitionThreshold == 0 {
		cfg.Vision.RecognitionThreshold = 0.4
	}
	if cfg.Tracking.MaxAge == 0 {
		cfg.Tracking.MaxAge = 30
	}
	if cfg.Tracking.MinHits == 0 {
		cfg.Tracking.MinHits = 3
	}
	if cfg.Tracking.ReRecognizeInterval == 0 {
		cfg.Tracking.ReRecognizeInterval = 3 * time.Second
	}
	if cfg.Matcher.Granularity == "" {
		cfg.Matcher.Granularity = "row"
	}
	if cfg.Matcher.Workers == 0 {
		cfg.Matcher.Workers = 8
	}
	if cfg.Pipeline.ClusterRatio == 0 {
		cfg.Pipeline.ClusterRatio = 0.2
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VPP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VPP_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("VPP_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("VPP_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("VPP_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("VPP_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("VPP_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("VPP_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("VPP_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("VPP_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("VPP_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("VPP_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("VPP_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
	if v := os.Getenv("VPP_VISION_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vision.WorkerCount = n
		}
	}
	if v := os.Getenv("VPP_MATCHER_APPEARANCE_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.Matcher.AppearanceWeight = float32(f)
		}
	}
	if v := os.Getenv("VPP_PIPELINE_CLUSTER_ENABLED"); v != "" {
		cfg.Pipeline.ClusterEnabled = v == "1" || v == "true"
	}
	if v := os.Getenv("VPP_TASK_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Task.Workers = n
		}
	}
}
