/*
Package attest provides the shared primitives of the approval and
attestation engine: risk tiers, request statuses, approver roles, the
second-precision UnixTime used for all deadline arithmetic, the key-value
store contracts implemented by the store package, and the narrow
collaborator interfaces (Clock, Signer, EntityLookup) that the engine
consumes but never implements itself.

The engine logic lives in the extension packages below x/. Infrastructure
shared by the extensions lives in errors, store and orm. Deterministic
test doubles for the collaborator interfaces are provided by the
attesttest package.
*/
package attest
