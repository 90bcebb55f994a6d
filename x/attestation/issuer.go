package attestation

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
)

// BucketName is where issued attestations are stored, keyed by entity id.
const BucketName = "atts"

// Issuer creates at most one attestation per entity. Signatures are
// produced by the injected signer; the issuer holds no cryptographic
// material.
type Issuer struct {
	mu       sync.Mutex
	db       attest.KVStore
	bucket   orm.Bucket
	signer   attest.Signer
	clock    attest.Clock
	validity time.Duration
}

// NewIssuer returns an issuer persisting into given store. A validity of
// zero selects DefaultValidity.
func NewIssuer(db attest.KVStore, signer attest.Signer, clock attest.Clock, validity time.Duration) *Issuer {
	if validity == 0 {
		validity = DefaultValidity
	}
	return &Issuer{
		db:       db,
		bucket:   orm.NewBucket(BucketName),
		signer:   signer,
		clock:    clock,
		validity: validity,
	}
}

// Issue creates, signs and stores the attestation for given entity. When
// one already exists it is returned unchanged, so re-entrant approval
// calls cannot duplicate.
func (i *Issuer) Issue(entityID, issuerID string, in Input) (*Attestation, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	existing, err := i.get(entityID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	now := attest.AsUnixTime(i.clock.Now())
	a := &Attestation{
		ID:              "att_" + uuid.NewString(),
		EntityID:        entityID,
		IssuerID:        issuerID,
		IssuedAt:        now,
		ValidUntil:      now.Add(i.validity),
		Scope:           in.Scope,
		Findings:        in.Findings,
		Recommendations: in.Recommendations,
	}
	if a.Findings == nil {
		a.Findings = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot serialize attestation: %v", err)
	}
	sig, err := i.signer.Sign(payload)
	if err != nil {
		return nil, errors.Wrap(err, "sign attestation")
	}
	a.Signature = sig

	if err := i.bucket.Save(i.db, []byte(entityID), a); err != nil {
		return nil, err
	}
	return a.Copy(), nil
}

// Get returns the attestation issued for given entity, or ErrNotFound.
func (i *Issuer) Get(entityID string) (*Attestation, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.get(entityID)
}

func (i *Issuer) get(entityID string) (*Attestation, error) {
	var a Attestation
	if err := i.bucket.One(i.db, []byte(entityID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}
