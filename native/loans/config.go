package loans

import "fmt"

// Config captures the runtime policy for the loan module as loaded from the
// node configuration file.
type Config struct {
	BaseRateBps              uint64 `toml:"BaseRateBps"`
	PromptPaymentDiscountBps uint64 `toml:"PromptPaymentDiscountBps"`
	RiskPremiumBps           uint64 `toml:"RiskPremiumBps"`
	CollateralDiscountBps    uint64 `toml:"CollateralDiscountBps"`
	BorrowerHistoryFactorBps uint64 `toml:"BorrowerHistoryFactorBps"`
	MaxDiscountBps           uint64 `toml:"MaxDiscountBps"`
}

// DefaultConfig mirrors DefaultModel as file-level configuration.
func DefaultConfig() Config {
	model := DefaultModel()
	return Config{
		BaseRateBps:              model.BaseRate,
		PromptPaymentDiscountBps: model.PromptPaymentDiscount,
		RiskPremiumBps:           model.RiskPremium,
		CollateralDiscountBps:    model.CollateralDiscount,
		BorrowerHistoryFactorBps: model.BorrowerHistoryFactor,
		MaxDiscountBps:           model.MaxDiscount,
	}
}

// Normalize fills zeroed fields with the default policy values.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	defaults := DefaultConfig()
	if c.BaseRateBps == 0 {
		c.BaseRateBps = defaults.BaseRateBps
	}
	if c.BorrowerHistoryFactorBps == 0 {
		c.BorrowerHistoryFactorBps = defaults.BorrowerHistoryFactorBps
	}
	if c.MaxDiscountBps == 0 {
		c.MaxDiscountBps = defaults.MaxDiscountBps
	}
}

// Validate performs static validation of the policy.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil loans config")
	}
	if c.BaseRateBps < minRateBps {
		return fmt.Errorf("loans config: BaseRateBps %d below the %d bp rate floor", c.BaseRateBps, minRateBps)
	}
	if c.MaxDiscountBps > 10_000 {
		return fmt.Errorf("loans config: MaxDiscountBps %d exceeds 100%%", c.MaxDiscountBps)
	}
	if c.CollateralDiscountBps > c.BaseRateBps {
		return fmt.Errorf("loans config: CollateralDiscountBps %d exceeds BaseRateBps %d", c.CollateralDiscountBps, c.BaseRateBps)
	}
	return nil
}

// Model converts the configuration into the immutable policy consumed by the
// engine.
func (c Config) Model() *InterestRateModel {
	return &InterestRateModel{
		BaseRate:              c.BaseRateBps,
		PromptPaymentDiscount: c.PromptPaymentDiscountBps,
		RiskPremium:           c.RiskPremiumBps,
		CollateralDiscount:    c.CollateralDiscountBps,
		BorrowerHistoryFactor: c.BorrowerHistoryFactorBps,
		MaxDiscount:           c.MaxDiscountBps,
	}
}
