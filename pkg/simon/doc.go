// Package simon reads the path listings produced by the Simon optical network
// simulator and turns them into pathanalysis.PathRecord values.
//
// Each non-blank, non-comment line describes one path:
//
//	1->3 (Cost: 1920.02) 1 (0.01) 25 (800.00) 26 (1120.00) 27 (0.01) 3 (LinkCount: 4) (Half: ...)
//
// Every "<id> (<distance>)" pair is a hop followed by the distance to the next
// hop; the bare id before "(LinkCount" is the destination. Parsing is
// tolerant: a malformed line is reported as a LineError and skipped, and only
// I/O failures abort the read.
package simon
