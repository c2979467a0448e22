// Package pathanalysis decides where signal regenerators and optical power
// compensators (OPCs) go along a simulated point-to-point optical path, and
// how much distance imbalance stays uncompensated.
//
// A path is analyzed in four strictly sequential stages:
//
//  1. Regenerator placement – greedy forward scan over the interior sub-path;
//     a regenerator is inserted at the node preceding the link that pushes the
//     running span over the reach threshold.
//  2. Section partitioning – anchors {0} ∪ regenerators ∪ {M-1} split the
//     interior sub-path into consecutive sections.
//  3. OPC placement – at most one OPC per section, on the valid interior node
//     whose cumulative distance is nearest the section midpoint.
//  4. Residual distance – per-section |left-right| imbalance plus the trailing
//     leftover after the last regenerator.
//
// The interior sub-path drops the true source and destination: for a record of
// N nodes it holds nodes[1..N-2]. Its first and last element (the ROADMs next
// to the true endpoints) never host a regenerator or an OPC.
//
// Complexity:
//
//	– Time:  O(M) per record, M = interior sub-path length.
//	– Space: O(M) for prefix sums, anchors and placements.
//
// Records never share state. An Analyzer is immutable once built, so one value
// may serve any number of goroutines.
//
// Errors (sentinel):
//
//	– ErrBadThreshold    if the reach threshold is not a positive finite number.
//	– ErrMalformedRecord if a record has no nodes or a negative/non-finite distance.
//
// Path that cannot be bridged is not an error: it yields StatusUnreachable.
package pathanalysis
