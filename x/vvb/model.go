package vvb

import (
	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
)

// Well known entity types. Type is an open string so that external
// bodies can carry whatever classification their accreditation uses, but
// the two internal types below are reserved and map to privileged roles.
const (
	TypeAdmin     = "ADMIN"
	TypeValidator = "VALIDATOR"
	// TypeExternalReviewer is assigned to auto-registered contract
	// review bodies.
	TypeExternalReviewer = "EXTERNAL_REVIEWER"
)

// VVBEntity is a registered approving authority.
type VVBEntity struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Active       bool            `json:"active"`
	RegisteredAt attest.UnixTime `json:"registered_at"`
	// Certifications is empty at creation and maintained out of band.
	Certifications []string `json:"certifications"`
	// Metadata is empty at creation and maintained out of band.
	Metadata map[string]string `json:"metadata"`
}

var _ orm.Model = (*VVBEntity)(nil)

func (e *VVBEntity) Validate() error {
	switch {
	case e.ID == "":
		return errors.Wrap(errors.ErrEmpty, "id")
	case e.Name == "":
		return errors.Wrap(errors.ErrEmpty, "name")
	case e.Type == "":
		return errors.Wrap(errors.ErrEmpty, "type")
	case e.Certifications == nil:
		return errors.Wrap(errors.ErrEmpty, "certifications must be initialized")
	case e.Metadata == nil:
		return errors.Wrap(errors.ErrEmpty, "metadata must be initialized")
	}
	return errors.Wrap(e.RegisteredAt.Validate(), "registered at")
}

// Copy returns a deep copy of this entity.
func (e *VVBEntity) Copy() *VVBEntity {
	certs := make([]string, len(e.Certifications))
	copy(certs, e.Certifications)
	meta := make(map[string]string, len(e.Metadata))
	for k, v := range e.Metadata {
		meta[k] = v
	}
	return &VVBEntity{
		ID:             e.ID,
		Name:           e.Name,
		Type:           e.Type,
		Active:         e.Active,
		RegisteredAt:   e.RegisteredAt,
		Certifications: certs,
		Metadata:       meta,
	}
}

// Role maps the registered type of this entity to the approver role it
// can fill. Anything that is not a reserved internal type acts as an
// external reviewer.
func (e *VVBEntity) Role() attest.Role {
	switch e.Type {
	case TypeAdmin:
		return attest.RoleAdmin
	case TypeValidator:
		return attest.RoleValidator
	}
	return attest.RoleReviewer
}
