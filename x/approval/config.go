package approval

import (
	"time"

	"github.com/tendermint/tendermint/libs/log"

	"github.com/ecoreg/attest/errors"
)

// Options tune the engine for a deployment. The zero value is valid and
// selects all defaults.
type Options struct {
	// ApprovalWindow overrides the decision window granted to new
	// requests. Zero keeps the tier policy default of seven days.
	ApprovalWindow time.Duration

	// IssueOnTieredApproval controls whether approved STANDARD,
	// ELEVATED and CRITICAL changes also receive an attestation.
	// General tier reviews always issue one.
	IssueOnTieredApproval bool

	// Logger receives lifecycle transitions. Nil selects a nop logger.
	Logger log.Logger

	// Metrics receives lifecycle counters. Nil selects NopMetrics.
	Metrics *Metrics
}

func (o Options) Validate() error {
	if o.ApprovalWindow < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "approval window must not be negative")
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = NopMetrics()
	}
	return o
}
