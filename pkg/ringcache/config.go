package ringcache

import (
	"flag"
	"fmt"
)

// Config carries every construction parameter from spec.md §6. Yaml
// tags let a host binary's own config loader (e.g. gopkg.in/yaml.v2,
// as cmd/tempo does) decode this as a sub-section; loading the config
// file itself is out of scope for this package (spec.md §1).
type Config struct {
	InitialSize int64 `yaml:"initial_size,omitempty"`

	AutoResize       bool    `yaml:"auto_resize,omitempty"`
	DesiredEjectMins float64 `yaml:"desired_eject_mins,omitempty"`
	AutoMinSize      int64   `yaml:"auto_min_size,omitempty"`
	AutoMaxSize      int64   `yaml:"auto_max_size,omitempty"`

	MonitorPeriodMins    float64 `yaml:"monitor_period_mins,omitempty"`
	TriggerAdjustPercent float64 `yaml:"trigger_adjust_percent,omitempty"`
	MaxAdjustPercentUp   float64 `yaml:"max_adjust_percent_up,omitempty"`
	MaxAdjustPercentDown float64 `yaml:"max_adjust_percent_down,omitempty"`

	DrainParallelItems int `yaml:"drain_parallel_items,omitempty"`
}

// NewDefaultConfig returns a Config with every flag's default value
// applied, mirroring cmd/tempo/app.NewDefaultConfig's
// register-into-a-throwaway-FlagSet idiom.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	fs := flag.NewFlagSet("", flag.PanicOnError)
	cfg.RegisterFlagsAndApplyDefaults("", fs)
	return cfg
}

// RegisterFlagsAndApplyDefaults registers one flag per construction
// parameter under prefix, and sets cfg's fields to the defaults from
// spec.md §6's parameter table.
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	c.InitialSize = 1_000_000
	c.AutoResize = false
	c.DesiredEjectMins = 15
	c.AutoMinSize = 10_000
	c.AutoMaxSize = 10_000_000
	c.MonitorPeriodMins = 10
	c.TriggerAdjustPercent = 20
	c.MaxAdjustPercentUp = 25
	c.MaxAdjustPercentDown = 10
	c.DrainParallelItems = 100

	f.Int64Var(&c.InitialSize, prefix+"initial-size", c.InitialSize, "Starting ring capacity.")
	f.BoolVar(&c.AutoResize, prefix+"auto-resize", c.AutoResize, "Enable the capacity controller.")
	f.Float64Var(&c.DesiredEjectMins, prefix+"desired-eject-mins", c.DesiredEjectMins, "Target mean residency, in minutes.")
	f.Int64Var(&c.AutoMinSize, prefix+"auto-min-size", c.AutoMinSize, "Minimum ring capacity the controller may set.")
	f.Int64Var(&c.AutoMaxSize, prefix+"auto-max-size", c.AutoMaxSize, "Maximum ring capacity the controller may set.")
	f.Float64Var(&c.MonitorPeriodMins, prefix+"monitor-period-mins", c.MonitorPeriodMins, "Controller monitoring window length, in minutes.")
	f.Float64Var(&c.TriggerAdjustPercent, prefix+"trigger-adjust-percent", c.TriggerAdjustPercent, "Deadband around the target residency before the controller acts.")
	f.Float64Var(&c.MaxAdjustPercentUp, prefix+"max-adjust-percent-up", c.MaxAdjustPercentUp, "Maximum per-decision capacity increase, percent.")
	f.Float64Var(&c.MaxAdjustPercentDown, prefix+"max-adjust-percent-down", c.MaxAdjustPercentDown, "Maximum per-decision capacity decrease, percent.")
	f.IntVar(&c.DrainParallelItems, prefix+"drain-parallel-items", c.DrainParallelItems, "Batch size for parallel ejection.")
}

// Validate bounds-checks the config. Descriptive, non-sentinel errors,
// matching modules/cache's CacheConfig.Validate style.
func (c *Config) Validate() error {
	if c.InitialSize <= 0 {
		return fmt.Errorf("initial size must be positive, got %d", c.InitialSize)
	}
	if c.AutoResize {
		if c.AutoMinSize <= 0 || c.AutoMaxSize <= 0 {
			return fmt.Errorf("auto min/max size must be positive when auto resize is enabled")
		}
		if c.AutoMinSize > c.AutoMaxSize {
			return fmt.Errorf("auto min size (%d) must not exceed auto max size (%d)", c.AutoMinSize, c.AutoMaxSize)
		}
		if c.InitialSize < c.AutoMinSize || c.InitialSize > c.AutoMaxSize {
			return fmt.Errorf("initial size (%d) must be within [auto min size, auto max size] = [%d, %d]", c.InitialSize, c.AutoMinSize, c.AutoMaxSize)
		}
		if c.DesiredEjectMins <= 0 {
			return fmt.Errorf("desired eject mins must be positive, got %v", c.DesiredEjectMins)
		}
		if c.MonitorPeriodMins <= 0 {
			return fmt.Errorf("monitor period mins must be positive, got %v", c.MonitorPeriodMins)
		}
		if c.TriggerAdjustPercent < 0 {
			return fmt.Errorf("trigger adjust percent must not be negative, got %v", c.TriggerAdjustPercent)
		}
		if c.MaxAdjustPercentUp <= 0 || c.MaxAdjustPercentUp > 100 {
			return fmt.Errorf("max adjust percent up must be in (0, 100], got %v", c.MaxAdjustPercentUp)
		}
		if c.MaxAdjustPercentDown <= 0 || c.MaxAdjustPercentDown > 100 {
			return fmt.Errorf("max adjust percent down must be in (0, 100], got %v", c.MaxAdjustPercentDown)
		}
	}
	if c.DrainParallelItems <= 0 {
		return fmt.Errorf("drain parallel items must be positive, got %d", c.DrainParallelItems)
	}
	return nil
}
