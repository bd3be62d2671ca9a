// Package symbol resolves namespaced type names to source files on demand.
//
// A Resolver owns one namespace root: a prefix, a directory, a file extension
// and a separator. Given the prefix "forall.http", the directory "/pkg/src",
// the extension ".lua" and the separator ".", the name
// "forall.http.client.Pool_Idle" maps to "/pkg/src/client/Pool/Idle.lua".
// Underscores in the last segment become directory separators as well.
//
// Resolvers never fail loudly on names they cannot serve. A name outside the
// prefix, a missing file or a file that does not define the requested symbol
// all report "not applicable" so that the next resolver in a Stack can try.
// Only a file that exists but cannot be evaluated is an error.
//
// After a successful resolution every OnResolved callback runs in
// registration order. Callbacks are how first use of a symbol pulls in the
// dependencies of the package that owns it.
package symbol
