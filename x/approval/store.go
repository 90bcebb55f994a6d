package approval

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/ecoreg/attest"
	"github.com/ecoreg/attest/errors"
	"github.com/ecoreg/attest/orm"
	"github.com/ecoreg/attest/x/attestation"
	"github.com/ecoreg/attest/x/vvb"
)

const (
	// RequestBucketName is where the current request per entity lives.
	RequestBucketName = "request"
	// historyBucketName retains requests replaced by a resubmission.
	// Nothing is ever physically deleted, compliance may need it.
	historyBucketName = "reqlog"
)

// rejectionUnsupportedTier is the reason recorded when a submission
// carries an unknown change classification.
const rejectionUnsupportedTier = "unsupported change type"

// rejectionUnauthorized is the reason recorded when an approval attempt
// poisons a request.
const rejectionUnauthorized = "unauthorized approver"

// Store orchestrates submission, voting, rejection, expiry and status
// queries. It owns the per-entity request state; everything else (the
// target entities, signing, time) is an injected collaborator.
//
// All mutation of a single entity is linearized through a keyed lock.
// Different entities never contend.
type Store struct {
	db       attest.KVStore
	requests orm.Bucket
	history  orm.Bucket
	votes    voteLedger
	trail    auditTrail
	registry *vvb.Registry
	issuer   *attestation.Issuer
	entities attest.EntityLookup
	clock    attest.Clock
	locks    *keyLock
	opts     Options
	logger   log.Logger
	metrics  *Metrics
}

// NewStore wires the engine. The store, registry and issuer are expected
// to share the same database so that state stays consistent under one
// set of keys.
func NewStore(
	db attest.KVStore,
	entities attest.EntityLookup,
	registry *vvb.Registry,
	issuer *attestation.Issuer,
	clock attest.Clock,
	opts Options,
) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "options")
	}
	opts = opts.withDefaults()
	return &Store{
		db:       db,
		requests: orm.NewBucket(RequestBucketName),
		history:  orm.NewBucket(historyBucketName),
		votes:    newVoteLedger(),
		trail:    newAuditTrail(),
		registry: registry,
		issuer:   issuer,
		entities: entities,
		clock:    clock,
		locks:    newKeyLock(),
		opts:     opts,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}, nil
}

func newRequestID() string {
	return "req_" + uuid.NewString()
}

// Submit opens a new approval request for given entity. It fails with
// ErrDuplicate while a pending request exists, and with the entity
// lookup error when the target cannot be resolved. An unsupported tier
// does not fail: the request is persisted already finalized as rejected,
// so callers can branch on the status uniformly.
func (s *Store) Submit(entityID string, tier attest.Tier, submitterID string) (*ApprovalRequest, error) {
	if entityID == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "entity id")
	}
	unlock := s.locks.Lock(entityID)
	defer unlock()

	entity, err := s.entities.Get(entityID)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup entity %q", entityID)
	}
	now := attest.AsUnixTime(s.clock.Now())

	var prev ApprovalRequest
	switch err := s.requests.One(s.db, []byte(entityID), &prev); {
	case err == nil:
		if prev.Status == attest.StatusPending {
			if !prev.PastDeadline(now) {
				return nil, errors.Wrapf(errors.ErrDuplicate, "pending request %s for entity %q", prev.ID, entityID)
			}
			if err := s.finalizeExpired(&prev, now); err != nil {
				return nil, err
			}
		}
		if err := s.archive(&prev); err != nil {
			return nil, err
		}
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	req := &ApprovalRequest{
		ID:          newRequestID(),
		EntityID:    entityID,
		Tier:        tier,
		SubmittedAt: now,
		SubmitterID: submitterID,
		Status:      attest.StatusPending,
	}

	policy, err := ResolvePolicy(tier, entity.AssignedVVB)
	switch {
	case errors.ErrInvalidTier.Is(err):
		// Never leave an orphaned pending request behind: persist it
		// immediately finalized.
		req.Status = attest.StatusRejected
		req.RejectionReason = rejectionUnsupportedTier
		if err := s.requests.Save(s.db, []byte(entityID), req); err != nil {
			return nil, err
		}
		if err := s.audit(entityID, "submitted", submitterID, now); err != nil {
			return nil, err
		}
		if err := s.audit(entityID, "rejected: "+rejectionUnsupportedTier, submitterID, now); err != nil {
			return nil, err
		}
		s.metrics.markSubmitted()
		s.metrics.markRejected()
		s.logger.Info("rejected submission", "entity", entityID, "request", req.ID, "reason", rejectionUnsupportedTier)
		return req.Copy(), nil
	case err != nil:
		return nil, err
	}

	if tier == attest.TierGeneral && !entity.FullySigned {
		return nil, errors.Wrapf(errors.ErrInvalidState, "entity %q is not fully signed", entityID)
	}

	window := policy.Window
	if s.opts.ApprovalWindow > 0 {
		window = s.opts.ApprovalWindow
	}
	req.Deadline = now.Add(window)
	req.RequiredApprovers = policy.Slots
	req.Quorum = policy.Quorum

	if err := s.requests.Save(s.db, []byte(entityID), req); err != nil {
		return nil, err
	}
	if err := s.audit(entityID, "submitted", submitterID, now); err != nil {
		return nil, err
	}
	s.metrics.markSubmitted()
	s.logger.Info("submitted", "entity", entityID, "request", req.ID, "tier", tier.String())
	return req.Copy(), nil
}

// Approve records a vote from given approver. See ApproveWithInput.
func (s *Store) Approve(entityID, approverID string) (*ApprovalRequest, error) {
	return s.ApproveWithInput(entityID, approverID, attestation.Input{})
}

// ApproveWithInput records a vote from given approver, carrying the
// attestation content for a review decision. The returned request
// reflects the state after the vote:
//
//   - terminal requests are returned unchanged, late or duplicate
//     network messages are harmless
//   - a vote past the deadline finalizes the request as expired
//   - an unauthorized vote finalizes the request as rejected
//   - repeating an already recorded vote changes nothing
//   - otherwise the vote is recorded and quorum re-evaluated; reaching
//     it finalizes as approved and, where policy says so, issues the
//     attestation
func (s *Store) ApproveWithInput(entityID, approverID string, in attestation.Input) (*ApprovalRequest, error) {
	if approverID == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "approver id")
	}
	unlock := s.locks.Lock(entityID)
	defer unlock()

	req, err := s.load(entityID)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return req, nil
	}
	now := attest.AsUnixTime(s.clock.Now())
	if req.PastDeadline(now) {
		if err := s.finalizeExpired(req, now); err != nil {
			return nil, err
		}
		return req.Copy(), nil
	}

	role, err := s.resolveRole(req, approverID)
	var voted bool
	if err == nil {
		voted, err = s.votes.Has(s.db, req.ID, approverID)
	}
	if err == nil && !voted {
		var records []*ApprovalRecord
		if records, err = s.votes.Records(s.db, req.ID); err == nil {
			err = authorize(req, records, approverID, role)
		}
	}
	switch {
	case errors.ErrUnauthorized.Is(err):
		// Fail closed: a bad vote is a protocol violation that poisons
		// the request, not a harmless no-op.
		req.Status = attest.StatusRejected
		req.RejectionReason = rejectionUnauthorized
		if err := s.requests.Save(s.db, []byte(entityID), req); err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("rejected: %s %q", rejectionUnauthorized, approverID)
		if err := s.audit(entityID, msg, approverID, now); err != nil {
			return nil, err
		}
		s.metrics.markUnauthorized()
		s.metrics.markRejected()
		s.logger.Info("unauthorized approval attempt", "entity", entityID, "request", req.ID, "approver", approverID)
		return req.Copy(), nil
	case err != nil:
		return nil, err
	}

	if !voted {
		rec := &ApprovalRecord{
			RequestID:  req.ID,
			ApproverID: approverID,
			Role:       role,
			Timestamp:  now,
		}
		if _, err := s.votes.Insert(s.db, rec); err != nil {
			return nil, err
		}
		if err := s.audit(entityID, "approved by "+approverID, approverID, now); err != nil {
			return nil, err
		}
		s.metrics.markVote()
	}

	records, err := s.votes.Records(s.db, req.ID)
	if err != nil {
		return nil, err
	}
	req.Votes = uint32(len(records))
	// Persist the accepted vote before attempting the terminal
	// transition, so a failed issuance below still leaves the recorded
	// count visible.
	if err := s.requests.Save(s.db, []byte(entityID), req); err != nil {
		return nil, err
	}

	if hasQuorum(req, len(records)) {
		// Issue before any terminal side effect. A signer failure must
		// leave the request pending with no audit line and no counter
		// tick, so that a retry performs the whole transition exactly
		// once.
		var att *attestation.Attestation
		if req.Tier == attest.TierGeneral || s.opts.IssueOnTieredApproval {
			att, err = s.issue(req, approverID, in)
			if err != nil {
				return nil, err
			}
		}

		req.Status = attest.StatusApproved
		if err := s.audit(entityID, "quorum reached", approverID, now); err != nil {
			return nil, err
		}
		s.metrics.markApproved()
		s.logger.Info("approved", "entity", entityID, "request", req.ID, "votes", len(records))

		if att != nil {
			if err := s.audit(entityID, "attestation issued", approverID, now); err != nil {
				return nil, err
			}
			s.metrics.markAttestation()
			s.logger.Info("attestation issued", "entity", req.EntityID, "attestation", att.ID)
		}

		if err := s.requests.Save(s.db, []byte(entityID), req); err != nil {
			return nil, err
		}
	}
	return req.Copy(), nil
}

// Reject vetoes the request. A single call is enough, no quorum math is
// involved: rejecting fails closed with minimal ceremony while approving
// requires positive multi party agreement. Rejecting an already rejected
// or expired request is a no-op returning the terminal state; rejecting
// an approved one fails with ErrAlreadyFinalized.
func (s *Store) Reject(entityID, reason string) (*ApprovalRequest, error) {
	unlock := s.locks.Lock(entityID)
	defer unlock()

	req, err := s.load(entityID)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case attest.StatusRejected, attest.StatusExpired:
		return req, nil
	case attest.StatusApproved:
		return nil, errors.Wrapf(errors.ErrAlreadyFinalized, "request %s is approved", req.ID)
	}

	now := attest.AsUnixTime(s.clock.Now())
	if req.PastDeadline(now) {
		if err := s.finalizeExpired(req, now); err != nil {
			return nil, err
		}
		return req.Copy(), nil
	}

	req.Status = attest.StatusRejected
	req.RejectionReason = reason
	if err := s.requests.Save(s.db, []byte(entityID), req); err != nil {
		return nil, err
	}
	if err := s.audit(entityID, "rejected: "+reason, "", now); err != nil {
		return nil, err
	}
	s.metrics.markRejected()
	s.logger.Info("rejected", "entity", entityID, "request", req.ID, "reason", reason)
	return req.Copy(), nil
}

// Status returns the current request for given entity. A pending request
// past its deadline is reported as expired without mutating any stored
// state; votes already cast stay untouched.
func (s *Store) Status(entityID string) (*ApprovalRequest, error) {
	req, err := s.load(entityID)
	if err != nil {
		return nil, err
	}
	now := attest.AsUnixTime(s.clock.Now())
	if req.Status == attest.StatusPending && req.PastDeadline(now) {
		req.Status = attest.StatusExpired
	}
	return req, nil
}

// AuditTrail returns the entity's event log in insertion order.
func (s *Store) AuditTrail(entityID string) ([]*AuditEntry, error) {
	return s.trail.Entries(s.db, entityID)
}

// Attestation returns the attestation issued for given entity, or
// ErrNotFound.
func (s *Store) Attestation(entityID string) (*attestation.Attestation, error) {
	return s.issuer.Get(entityID)
}

// RegisterVVB adds a verification body to the registry.
func (s *Store) RegisterVVB(id, name, typ string) (*vvb.VVBEntity, error) {
	return s.registry.Register(id, name, typ)
}

// RegisteredVVBs lists all known verification bodies ordered by id.
func (s *Store) RegisteredVVBs() ([]*vvb.VVBEntity, error) {
	return s.registry.List()
}

// Metrics returns a snapshot of the lifecycle counters.
func (s *Store) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// SweepExpired proactively finalizes all pending requests whose decision
// window elapsed and returns how many were flipped. The engine does not
// need this for correctness, deadlines are evaluated lazily on every
// access; sweeping only completes the audit log for abandoned requests.
func (s *Store) SweepExpired() (int, error) {
	var stale []string
	err := s.requests.Iterate(s.db, nil, func(key, raw []byte) error {
		stale = append(stale, string(key))
		return nil
	})
	if err != nil {
		return 0, err
	}

	now := attest.AsUnixTime(s.clock.Now())
	var flipped int
	for _, entityID := range stale {
		unlock := s.locks.Lock(entityID)
		req, err := s.load(entityID)
		if err != nil {
			unlock()
			return flipped, err
		}
		if req.Status == attest.StatusPending && req.PastDeadline(now) {
			if err := s.finalizeExpired(req, now); err != nil {
				unlock()
				return flipped, err
			}
			flipped++
		}
		unlock()
	}
	return flipped, nil
}

// load returns a private copy of the current request for given entity.
func (s *Store) load(entityID string) (*ApprovalRequest, error) {
	var req ApprovalRequest
	if err := s.requests.One(s.db, []byte(entityID), &req); err != nil {
		return nil, errors.Wrapf(err, "entity %q", entityID)
	}
	return &req, nil
}

// resolveRole derives the approver's role from the registry. The
// general review tier auto-registers unknown reviewer identities, the
// tiered paths never do.
func (s *Store) resolveRole(req *ApprovalRequest, approverID string) (attest.Role, error) {
	if req.Tier == attest.TierGeneral {
		// A review bound to a specific body rejects everyone else
		// before auto-registration, an imposter must not end up in the
		// registry.
		for _, slot := range req.RequiredApprovers {
			if slot.AssignedID != "" && slot.AssignedID != approverID {
				return attest.RoleInvalid, errors.Wrapf(errors.ErrUnauthorized, "review is assigned to %q", slot.AssignedID)
			}
		}
		e, err := s.registry.EnsureReviewer(approverID)
		if err != nil {
			return attest.RoleInvalid, err
		}
		return e.Role(), nil
	}

	e, err := s.registry.Get(approverID)
	switch {
	case errors.ErrNotFound.Is(err):
		return attest.RoleInvalid, errors.Wrapf(errors.ErrUnauthorized, "unknown approver %q", approverID)
	case err != nil:
		return attest.RoleInvalid, err
	case !e.Active:
		return attest.RoleInvalid, errors.Wrapf(errors.ErrUnauthorized, "approver %q is inactive", approverID)
	}
	return e.Role(), nil
}

// issue creates the attestation for the approved change. It has no side
// effects besides the issuer call itself, the caller audits and counts
// only once issuance succeeded.
func (s *Store) issue(req *ApprovalRequest, issuerID string, in attestation.Input) (*attestation.Attestation, error) {
	if in.Scope == "" {
		switch req.Tier {
		case attest.TierGeneral:
			in.Scope = "contract review"
		default:
			in.Scope = "token version change"
		}
	}
	att, err := s.issuer.Issue(req.EntityID, issuerID, in)
	if err != nil {
		return nil, errors.Wrap(err, "issue attestation")
	}
	return att, nil
}

func (s *Store) finalizeExpired(req *ApprovalRequest, now attest.UnixTime) error {
	req.Status = attest.StatusExpired
	if err := s.requests.Save(s.db, []byte(req.EntityID), req); err != nil {
		return err
	}
	if err := s.audit(req.EntityID, "expired: decision window elapsed", "system", now); err != nil {
		return err
	}
	s.metrics.markExpired()
	s.logger.Info("expired", "entity", req.EntityID, "request", req.ID)
	return nil
}

// archive retains a replaced request so that resubmission never erases
// decision history.
func (s *Store) archive(req *ApprovalRequest) error {
	seq := orm.NewSequence(historyBucketName, req.EntityID)
	n, err := seq.NextVal(s.db)
	if err != nil {
		return err
	}
	key := append([]byte(req.EntityID+":"), n...)
	return s.history.Save(s.db, key, req)
}

func (s *Store) audit(entityID, message, actor string, now attest.UnixTime) error {
	return s.trail.Append(s.db, entityID, message, actor, now)
}
