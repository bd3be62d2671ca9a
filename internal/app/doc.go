// Package app is the bootstrap kernel. App owns the package registry, the
// loader catalog, the symbol resolvers, the activation state and the
// pipeline, and drives them through initialization, discovery, scheduling
// and activation. It is decoupled from any specific entrypoint like a CLI.
package app
