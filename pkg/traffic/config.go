package traffic

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/metricsfixture/testapp/pkg/testapp"
)

const (
	DefaultRequests      = 100
	DefaultConcurrency   = 4
	DefaultTimeout       = 3 * time.Second
	DefaultDelay         = 0 * time.Second
	DefaultUserAgent     = "testapp-traffic/1.0"
	DefaultMaxErrors     = 100
	DefaultNotFoundRegex = `/[a-z]{3,10}(/[a-z0-9]{1,8}){0,2}`
)

type Config struct {
	Host        string        `toml:"host" json:"host" mapstructure:"host"`
	Requests    int           `toml:"requests" json:"requests" mapstructure:"requests"` // Requests is the total to send. 0 means run until Duration or cancellation
	Duration    time.Duration `toml:"duration" json:"duration" mapstructure:"duration"`
	Concurrency int           `toml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
	Delay       time.Duration `toml:"delay" json:"delay" mapstructure:"delay"` // Delay is the pause between two requests of one worker
	Timeout     time.Duration `toml:"timeout" json:"timeout" mapstructure:"timeout"`
	UserAgent   string        `toml:"user_agent" json:"user_agent" mapstructure:"user_agent"`

	Mix           Mix    `toml:"mix" json:"mix" mapstructure:"mix"`
	NotFoundRegex string `toml:"not_found_regex" json:"not_found_regex" mapstructure:"not_found_regex"`

	// Verify compares every answer with the route table. SlowDelay is the least latency accepted from slow routes
	Verify    bool          `toml:"verify" json:"verify" mapstructure:"verify"`
	SlowDelay time.Duration `toml:"slow_delay" json:"slow_delay" mapstructure:"slow_delay"`
	MaxErrors int           `toml:"max_errors" json:"max_errors" mapstructure:"max_errors"` // MaxErrors caps how many RequestErrors are kept

	Seed int64 // Seed makes the route sequence reproducible. 0 seeds from the clock

	Table    testapp.Table
	Progress Progress
	Dial     func(addr string) (net.Conn, error) // Dial replaces the TCP dialer, used for in-memory listeners
}

func NewDefaultConfig() *Config {
	return &Config{
		Requests:      DefaultRequests,
		Concurrency:   DefaultConcurrency,
		Delay:         DefaultDelay,
		Timeout:       DefaultTimeout,
		UserAgent:     DefaultUserAgent,
		Mix:           DefaultMix(),
		NotFoundRegex: DefaultNotFoundRegex,
		Verify:        true,
		SlowDelay:     testapp.DefaultSlowDelay,
		MaxErrors:     DefaultMaxErrors,
		Table:         testapp.DefaultTable(),
		Progress:      &NullProgress{},
	}
}

type ErrBadConfig struct {
	fields []string
}

func (e *ErrBadConfig) Error() string {
	return fmt.Sprintf("config has invalid values in: %v", strings.Join(e.fields, ", "))
}

func (c *Config) Validate() error {
	badFields := make([]string, 0)
	if c.Host == "" {
		badFields = append(badFields, "Host")
	} else if _, _, err := net.SplitHostPort(c.Host); err != nil {
		badFields = append(badFields, "Host")
	}
	if c.Requests < 0 {
		badFields = append(badFields, "Requests")
	}
	if c.Requests == 0 && c.Duration <= 0 {
		badFields = append(badFields, "Requests", "Duration")
	}
	if c.Concurrency < 1 {
		badFields = append(badFields, "Concurrency")
	}
	if c.Timeout <= 0 {
		badFields = append(badFields, "Timeout")
	}
	if c.Delay < 0 {
		badFields = append(badFields, "Delay")
	}
	if c.Mix.Total() == 0 {
		badFields = append(badFields, "Mix")
	}
	for name := range c.Mix {
		if _, ok := c.Table.Named(name); !ok {
			badFields = append(badFields, "Mix."+name)
		}
	}
	if len(badFields) != 0 {
		return &ErrBadConfig{fields: badFields}
	}

	if c.Progress == nil {
		c.Progress = &NullProgress{}
	}
	if c.MaxErrors < 0 {
		c.MaxErrors = 0
	}
	return nil
}

type ConfigOption func(*Config)

func Host(h string) ConfigOption {
	return func(c *Config) {
		c.Host = h
	}
}

func Requests(n int) ConfigOption {
	return func(c *Config) {
		c.Requests = n
	}
}

func Duration(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Duration = d
	}
}

func Concurrency(n int) ConfigOption {
	return func(c *Config) {
		c.Concurrency = n
	}
}

func Delay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Delay = d
	}
}

func Timeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

func UserAgent(ua string) ConfigOption {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

func WithMix(m Mix) ConfigOption {
	return func(c *Config) {
		c.Mix = m
	}
}

func NotFoundRegex(re string) ConfigOption {
	return func(c *Config) {
		c.NotFoundRegex = re
	}
}

func Verify(v bool) ConfigOption {
	return func(c *Config) {
		c.Verify = v
	}
}

func SlowDelay(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.SlowDelay = d
	}
}

func MaxErrors(n int) ConfigOption {
	return func(c *Config) {
		c.MaxErrors = n
	}
}

func Seed(s int64) ConfigOption {
	return func(c *Config) {
		c.Seed = s
	}
}

func AddProgressBar(p Progress) ConfigOption {
	return func(c *Config) {
		c.Progress = p
	}
}

func Dial(d func(addr string) (net.Conn, error)) ConfigOption {
	return func(c *Config) {
		c.Dial = d
	}
}
