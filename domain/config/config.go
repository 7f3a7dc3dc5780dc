package config

import "time"

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Source  Source  `yaml:"source"`
	Collect Collect `yaml:"collect"`
}

// Source describes where the daily snapshot files live.
type Source struct {
	Type              string  `yaml:"type"` // gcs|dir
	Bucket            string  `yaml:"bucket"`
	Prefix            string  `yaml:"prefix"`
	Extension         string  `yaml:"extension"`
	Dir               string  `yaml:"dir"`
	DatasetColumn     string  `yaml:"dataset_column"`
	UsersColumn       string  `yaml:"users_column"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Collect holds the run parameters of the collect command. Dates are
// YYYY-MM-DD; an empty EndDate means yesterday.
type Collect struct {
	StartDate    string        `yaml:"start_date"`
	EndDate      string        `yaml:"end_date"`
	Workers      int           `yaml:"workers"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Mode         string        `yaml:"mode"`
	Output       string        `yaml:"output"`
}

const (
	SourceGCS = "gcs"
	SourceDir = "dir"

	DefaultStartDate    = "2024-04-23"
	DefaultWorkers      = 12
	DefaultFetchTimeout = 30 * time.Second
	DefaultOutput       = "object_stats.json"
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = SourceGCS
	}
	if c.Source.Bucket == "" {
		c.Source.Bucket = "earthengine-stats"
	}
	if c.Source.Prefix == "" {
		c.Source.Prefix = "providers/public/earthengine_stats"
	}
	if c.Source.Extension == "" {
		c.Source.Extension = "csv"
	}
	if c.Source.Dir == "" {
		c.Source.Dir = "data/snapshots"
	}
	if c.Source.DatasetColumn == "" {
		c.Source.DatasetColumn = "dataset"
	}
	if c.Source.UsersColumn == "" {
		c.Source.UsersColumn = "users"
	}
	if c.Collect.StartDate == "" {
		c.Collect.StartDate = DefaultStartDate
	}
	if c.Collect.Workers <= 0 {
		c.Collect.Workers = DefaultWorkers
	}
	if c.Collect.FetchTimeout <= 0 {
		c.Collect.FetchTimeout = DefaultFetchTimeout
	}
	if c.Collect.Mode == "" {
		c.Collect.Mode = "daily"
	}
	if c.Collect.Output == "" {
		c.Collect.Output = DefaultOutput
	}
}
