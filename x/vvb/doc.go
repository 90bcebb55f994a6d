/*
Package vvb tracks the verification and validation bodies known to the
engine.

The registry serves two purposes. It is the directory from which an
approver's role is derived during authorization, and it is the
self-service registration point for external contract reviewers. Internal
ADMIN and VALIDATOR identities are pre-provisioned and unknown ids on the
tiered approval paths are always rejected, while the general contract
review tier auto-registers unknown reviewer ids. That asymmetry is
deliberate: review bodies are external service providers that announce
themselves, internal roles are not.
*/
package vvb
