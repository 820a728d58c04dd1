// Package domain holds the admission client's value types and pure rules:
// campaign target resolution, invite parsing, the per-status retry decision
// table, admission outcomes, cached campaign entries and the daylight gate.
//
// Nothing in this package performs I/O; the admission protocol composes these
// rules with transport, storage and timing collaborators.
package domain
