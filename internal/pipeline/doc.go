// Package pipeline runs ordered loaders through the three activation phases.
//
// # Phases
//
// Activation makes three full passes over the ordered loaders:
//
//  1. **preLoad:** every loader implementing loader.PreLoader.
//  2. **load:** every loader. The activated flag is set as soon as a
//     loader's Load returns, before the next loader starts.
//  3. **postLoad:** every loader activated in this run that implements
//     loader.PostLoader.
//
// Passes are not interleaved. Every loader finishes its preLoad before any
// loader's load begins, and likewise for postLoad. The scheduler's ordering
// therefore only holds within a phase.
//
// # Failure
//
// The first failing hook stops the run and is reported as a *PhaseError
// naming the loader, its package and the phase. Nothing is rolled back:
// loaders activated before the failure stay activated.
//
// # Re-entrance
//
// A hook may trigger another activation (for instance by resolving a symbol
// whose package pulls in more loaders). The nested call behaves like a fresh
// top-level call. It skips loaders that are activated or whose Load is still
// running further up the stack, and the outer run skips in its later phases
// any loader the nested run activated.
package pipeline
