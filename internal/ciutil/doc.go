// Package ciutil centralizes detection of CI environments and
// resolution of test database connection settings, so integration tests
// behave the same locally and on CI runners.
package ciutil
