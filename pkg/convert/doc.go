// Package convert converts values between representations.
//
// A representation is described by a types.ObjectType (keyed) or a
// types.SequenceType (ordered) and the closed set of kinds it can hold.
// Conversion runs depth first: every field or element is tried as a direct
// match, then through capability dispatch, which may recurse into nested
// containers, and is otherwise declared unconvertible.
//
// Nothing in this package returns an error for an unrepresentable value.
// Scalar and Represent report false, Object moves the field to the result's
// remainder, and Sequence drops the element. Inputs are never mutated.
//
// Numeric narrowing is range checked. Under the default SignedBound policy
// an unsigned destination only accepts values up to the signed maximum of
// the same width, so uint8 holds 0..127; Strict uses the full unsigned range.
package convert
