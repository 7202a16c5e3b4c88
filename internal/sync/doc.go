// Package sync implements section-aware synchronization of the notebook
// across devices through a shared version-control remote.
//
// The pipeline runs leaf-first: a Detector derives per-section
// Added/Modified/Deleted changes between two historical points, Classify
// pairs local and remote changes by section identity and decides which
// pairs are true conflicts, Resolve picks a winner per conflict by
// timestamp comparison, and the Orchestrator drives the whole
// fetch-merge-commit-push state machine, including first-time sync and
// the degraded fallback paths.
//
// Everything here is single-threaded and synchronous: each step blocks
// on the version-control collaborator or on notebook file I/O, and every
// step checks ambient repository state before acting so that a killed or
// failed run can always be retried safely.
package sync
