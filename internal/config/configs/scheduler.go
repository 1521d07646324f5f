package configs

import "time"

// Scheduler configures the background reconciliation jobs. The sweep
// interval covers the expiry and budget sweeps; the daily rollover always
// fires at local midnight and is only togglable as a whole.
type Scheduler struct {
	// Enabled controls whether the background jobs run at all.
	Enabled bool `env:"ENABLED" envDefault:"true"`
	// Interval between expiry/budget sweeps.
	Interval time.Duration `env:"INTERVAL" envDefault:"1h"`
}
