/*
Package approval decides whether a proposed change may proceed.

A submission opens an ApprovalRequest whose tier fixes the required
approver composition and quorum threshold. Authorized parties vote
through Approve, any caller can veto through Reject, and the request
settles into exactly one terminal state: approved once quorum is
reached, rejected on veto or on any unauthorized approval attempt, or
expired once the decision window elapsed. On approval of a contract
review the attestation issuer produces a signed certificate.

Authorization fails closed. An approval attempt from an unknown signer,
a wrong role, or a role whose slots are already consumed is treated as a
protocol violation and finalizes the request as rejected instead of
being silently dropped; dropping it would hide a misconfiguration or an
attack.

Per entity mutation is linearized by a keyed lock, and entities never
share state, so concurrent votes on the same entity resolve to exactly
one terminal transition while unrelated entities proceed in parallel.
Deadlines are purely logical: they are evaluated lazily against the
injected clock on every read and write, no background timer is required
for correctness. SweepExpired exists only to keep the audit log complete
for abandoned requests.
*/
package approval
