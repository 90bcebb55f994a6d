/*
Package errors implements the error taxonomy of the approval engine.

Every error returned by the engine wraps one of the root errors declared
in this package. Root errors carry a unique numeric code so that a
transport layer can map any failure 1:1 to an HTTP or gRPC status without
string matching. Use Wrap and Wrapf to attach context while preserving
the root cause, and the root's Is method to test for it:

	if errors.ErrNotFound.Is(err) {
		...
	}
*/
package errors
