// Package governor evaluates proposed agent actions against the agent
// catalog, the SoD conflict matrix, and per-agent approval policy, in
// that order. An action either comes back Approved, comes back
// PendingApproval with an open gate, or fails with a typed error
// naming the first hurdle it could not clear.
package governor
