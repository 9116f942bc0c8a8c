// Package model defines the core data types of the sequencing engine:
// components, dependency edges, phases, plan definitions, and snapshots.
//
// Types in this package are plain values with no behavior beyond
// validation and serialization. Ownership rules:
//   - Components are created/destroyed by the component-design surface
//     and referenced (never owned) by the engine.
//   - Edges and manual sequence indices are owned by the engine and only
//     mutated through the sequencing coordinator.
//   - Phases are defined/ranked by the planning surface and read-only here.
//
// The package also provides RFC 8785-style canonical JSON serialization
// used for snapshot hashing and golden-file comparison. Canonical JSON
// guarantees byte-identical output for semantically identical snapshots,
// which is what makes "stable output on unchanged input" testable.
package model
