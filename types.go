package attest

import (
	"encoding/json"

	"github.com/ecoreg/attest/errors"
)

// Tier is the risk classification of a proposed change. It decides the
// required approver composition and the quorum threshold via the policy
// resolver in x/approval.
type Tier int8

const (
	// TierInvalid is the zero value and never a valid classification.
	TierInvalid Tier = iota
	// TierStandard requires a single validator sign off.
	TierStandard
	// TierElevated requires a unanimous admin plus validator sign off.
	TierElevated
	// TierCritical requires two of three votes from an admin, admin,
	// validator composition. It tolerates one absent or dissenting
	// participant.
	TierCritical
	// TierGeneral is the contract review tier, decided by a single
	// external reviewer body.
	TierGeneral
)

// ParseTier maps the wire representation of a tier to its value. Unknown
// input maps to TierInvalid without an error so that the submission path
// can persist an immediately rejected request instead of failing.
func ParseTier(raw string) Tier {
	switch raw {
	case "STANDARD":
		return TierStandard
	case "ELEVATED":
		return TierElevated
	case "CRITICAL":
		return TierCritical
	case "GENERAL":
		return TierGeneral
	}
	return TierInvalid
}

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "STANDARD"
	case TierElevated:
		return "ELEVATED"
	case TierCritical:
		return "CRITICAL"
	case TierGeneral:
		return "GENERAL"
	case TierInvalid:
		return "INVALID"
	}
	return "INVALID"
}

func (t Tier) Validate() error {
	switch t {
	case TierStandard, TierElevated, TierCritical, TierGeneral:
		return nil
	case TierInvalid:
		return errors.Wrap(errors.ErrInvalidTier, "empty tier")
	}
	return errors.Wrapf(errors.ErrInvalidTier, "tier %d", t)
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "tier must be a string")
	}
	*t = ParseTier(s)
	return nil
}

// Status is the lifecycle state of an approval request. Transitions are
// monotonic: StatusPending moves to exactly one of the terminal states
// and never back.
type Status int8

const (
	StatusInvalid Status = iota
	StatusPending
	StatusApproved
	StatusRejected
	StatusExpired
)

// Terminal returns true once the request reached a final state. Votes and
// vetoes against a terminal request are no-ops.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusExpired:
		return true
	case StatusPending, StatusInvalid:
		return false
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusApproved:
		return "APPROVED"
	case StatusRejected:
		return "REJECTED"
	case StatusExpired:
		return "EXPIRED"
	case StatusInvalid:
		return "INVALID"
	}
	return "INVALID"
}

func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return nil
	case StatusInvalid:
		return errors.Wrap(errors.ErrInvalidState, "empty status")
	}
	return errors.Wrapf(errors.ErrInvalidState, "status %d", s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(raw []byte) error {
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "status must be a string")
	}
	switch str {
	case "PENDING":
		*s = StatusPending
	case "APPROVED":
		*s = StatusApproved
	case "REJECTED":
		*s = StatusRejected
	case "EXPIRED":
		*s = StatusExpired
	default:
		*s = StatusInvalid
	}
	return nil
}

// Role tags an approver slot within a tier's required composition.
type Role int8

const (
	RoleInvalid Role = iota
	// RoleAdmin is a pre-provisioned internal administrator.
	RoleAdmin
	// RoleValidator is a pre-provisioned internal validator.
	RoleValidator
	// RoleReviewer is an external verification and validation body
	// deciding general tier contract reviews.
	RoleReviewer
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleValidator:
		return "VALIDATOR"
	case RoleReviewer:
		return "REVIEWER"
	case RoleInvalid:
		return "INVALID"
	}
	return "INVALID"
}

func (r Role) Validate() error {
	switch r {
	case RoleAdmin, RoleValidator, RoleReviewer:
		return nil
	case RoleInvalid:
		return errors.Wrap(errors.ErrInvalidInput, "empty role")
	}
	return errors.Wrapf(errors.ErrInvalidInput, "role %d", r)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "role must be a string")
	}
	switch s {
	case "ADMIN":
		*r = RoleAdmin
	case "VALIDATOR":
		*r = RoleValidator
	case "REVIEWER":
		*r = RoleReviewer
	default:
		*r = RoleInvalid
	}
	return nil
}
