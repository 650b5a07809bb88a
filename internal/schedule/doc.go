// Package schedule computes when maintenance and tax renewals are due.
//
// Everything here is a pure function of its arguments: no I/O, no clock, no
// shared state. Callers pass the reference odometer and date explicitly, so
// projections are safe to compute from any number of goroutines.
package schedule
