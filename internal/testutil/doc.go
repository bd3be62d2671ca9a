// Package testutil provides the harness integration tests use to boot an App
// over a throwaway package tree and inspect what happened.
package testutil
