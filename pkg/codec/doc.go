// Package codec reads and writes Values as JSON and YAML.
//
// The plain decoders build containers with a caller supplied
// representation and keep keys in document order when that representation
// is ordered. Plain JSON cannot carry every kind, so storage uses the typed
// form (MarshalTyped, UnmarshalTyped), which tags every value with its kind
// and round-trips all of them.
package codec
