// Package attestation issues and stores the signed, time-bounded
// certificates produced when a reviewed entity passes verification.
// At most one attestation exists per entity and it is created only on
// the transition to the approved state.
package attestation

import (
	"time"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
)

// DefaultValidity is how long an issued attestation stays valid.
const DefaultValidity = 365 * 24 * time.Hour

// Attestation is a signed certificate confirming that an entity passed
// third party verification.
type Attestation struct {
	ID       string          `json:"id"`
	EntityID string          `json:"entity_id"`
	IssuerID string          `json:"issuer_id"`
	IssuedAt attest.UnixTime `json:"issued_at"`
	// ValidUntil is IssuedAt plus the configured validity window,
	// roughly one year.
	ValidUntil      attest.UnixTime   `json:"valid_until"`
	Scope           string            `json:"scope"`
	Findings        []string          `json:"findings"`
	Recommendations []string          `json:"recommendations"`
	Signature       *attest.Signature `json:"signature"`
}

var _ orm.Model = (*Attestation)(nil)

func (a *Attestation) Validate() error {
	switch {
	case a.ID == "":
		return errors.Wrap(errors.ErrEmpty, "id")
	case a.EntityID == "":
		return errors.Wrap(errors.ErrEmpty, "entity id")
	case a.IssuerID == "":
		return errors.Wrap(errors.ErrEmpty, "issuer id")
	case a.IssuedAt.IsZero():
		return errors.Wrap(errors.ErrEmpty, "issued at")
	case !a.ValidUntil.After(a.IssuedAt):
		return errors.Wrap(errors.ErrInvalidState, "valid until must be after issued at")
	}
	if err := a.Signature.Validate(); err != nil {
		return errors.Wrap(err, "signature")
	}
	return nil
}

// IsValid reports whether the attestation covers given moment in time.
func (a *Attestation) IsValid(now time.Time) bool {
	t := attest.AsUnixTime(now)
	return !a.IssuedAt.After(t) && a.ValidUntil.After(t)
}

// Copy returns a deep copy of this attestation.
func (a *Attestation) Copy() *Attestation {
	findings := make([]string, len(a.Findings))
	copy(findings, a.Findings)
	recs := make([]string, len(a.Recommendations))
	copy(recs, a.Recommendations)
	var sig *attest.Signature
	if a.Signature != nil {
		sig = &attest.Signature{
			Algo: a.Signature.Algo,
			Sig:  append([]byte(nil), a.Signature.Sig...),
		}
	}
	return &Attestation{
		ID:              a.ID,
		EntityID:        a.EntityID,
		IssuerID:        a.IssuerID,
		IssuedAt:        a.IssuedAt,
		ValidUntil:      a.ValidUntil,
		Scope:           a.Scope,
		Findings:        findings,
		Recommendations: recs,
		Signature:       sig,
	}
}

// Input carries the reviewer supplied content of an attestation.
type Input struct {
	Scope           string   `json:"scope"`
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}
