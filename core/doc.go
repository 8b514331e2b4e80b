// Package core defines the domain contracts shared by every other package:
// the per-user Session and its Turns, capability Descriptors and the Invoker
// interface, the transient DispatchRequest/DispatchResult pair and the error
// taxonomy used across the dispatch boundary.
//
// Keeping these types here (rather than in the packages that implement them)
// prevents higher level packages (router, dispatch, transport) from depending
// on concrete storage or capability implementations.
package core
