// Package testutil contains helper builders and shared test suites used
// across packages to reduce boilerplate when constructing threads and when
// asserting the ThreadStore contract against different backends. Not intended
// for production usage.
package testutil
