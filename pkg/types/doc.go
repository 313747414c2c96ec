// Package types defines the value model shared by the conversion engine and the
// storage backends: the closed Value union over leaf kinds, keyed and ordered
// containers with their representation descriptors, the Database and Table
// interfaces, configuration, and the standard sentinel errors.
package types
