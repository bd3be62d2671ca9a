// Package registry tracks the packages installed in the host application:
// their names, roots, namespaces and loading settings.
//
// Packages are described by `package.hcl` manifests. LoadDir walks a
// directory tree, parses every manifest and returns a Store that iterates
// packages in a stable order: the order the manifests were found in, then
// the order of the blocks inside each file.
//
// The rest of the bootstrap engine only sees the Registry interface, so hosts
// that keep their package metadata elsewhere can supply their own.
package registry
