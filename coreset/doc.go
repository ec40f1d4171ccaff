// Package coreset provides the shared data model for streaming
// facility-location and coreset construction over large metric datasets.
//
// # Reading Guide
//
// Start with these files to understand the core:
//   - distance.go: the Distance[T] metric interface and two concrete metrics
//   - facility.go: a single tentative cluster center with weight and cost
//   - registry.go: the concurrent collection of facilities, nearest-facility
//     search, and parallel dispatch
//   - producer.go: the streaming data source abstraction
//   - scale.go: quantile-sketch based distance-scale estimation
//
// # Architecture
//
// coreset defines the collaborators shared by every algorithm; the
// algorithms themselves live in sub-packages:
//   - coreset/bmor: single-pass streaming facility location (Braverman,
//     Meyerson, Ostrovski, Roytman)
//   - coreset/mp: batch Mettu-Plaxton facility location
//   - coreset/assemble: the two-pass coreset assembler built on coreset/bmor
//
// Every engine ends by exposing a *FacilityRegistry for dispatch and
// inspection; callers run their own downstream clustering (k-means,
// k-medoids, ...) against the registry or the assembled CoreSet.
package coreset
