package attest

import (
	"time"

	"github.com/ecoreg/attest/errors"
)

// Clock provides the current time to the engine. It is injected so that
// deadline and validity arithmetic is deterministic under test.
type Clock interface {
	Now() time.Time
}

// Signature is the output of an external signing capability. The engine
// never inspects the bytes, it only attaches them to issued attestations.
type Signature struct {
	Algo string `json:"algo"`
	Sig  []byte `json:"sig"`
}

func (s *Signature) Validate() error {
	if s == nil {
		return errors.Wrap(errors.ErrEmpty, "signature")
	}
	if len(s.Sig) == 0 {
		return errors.Wrap(errors.ErrEmpty, "signature bytes")
	}
	if s.Algo == "" {
		return errors.Wrap(errors.ErrEmpty, "signature algorithm")
	}
	return nil
}

// Signer produces signatures over arbitrary payloads. All cryptographic
// material stays behind this interface; the engine holds none.
//
// No serialization requirements on purpose, to support hardware devices
// as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
}

// Entity is the engine's read-only view of the target of a proposed
// change, as reported by the owning service.
type Entity struct {
	ID string `json:"id"`
	// FullySigned reports whether all contracting parties signed the
	// entity. A general tier review is only accepted for fully signed
	// entities.
	FullySigned bool `json:"fully_signed"`
	// AssignedVVB optionally names the external reviewer body assigned
	// to this entity. When set, the general tier reviewer slot is bound
	// to exactly this identity.
	AssignedVVB string `json:"assigned_vvb,omitempty"`
}

// EntityLookup resolves the target of a submission. Lookup failures
// propagate as submission failures.
type EntityLookup interface {
	Get(entityID string) (*Entity, error)
}
