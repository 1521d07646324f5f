package configs

// Billing configures click billing.
type Billing struct {
	// CostPerClickCents is the flat charge for one billable click.
	CostPerClickCents int64 `env:"COST_PER_CLICK_CENTS" envDefault:"10"`
	// StopOnReserveShortage stops an ad as budget-exhausted when the
	// wallet reserve cannot cover a click. When false (the default), only
	// the single click is rejected and the ad keeps running.
	StopOnReserveShortage bool `env:"STOP_ON_RESERVE_SHORTAGE" envDefault:"false"`
}
