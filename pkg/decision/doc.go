// Package decision defines the audit record written for every policy
// decision the engine computes, and the deterministic context hashing that
// keys the decision cache.
//
// A decision record mirrors what operators need after the fact: which
// ruleset version ran, the hash and JSON of the input context, how many
// rules were evaluated and matched, a confidence score, and the cache
// expiry. Records are append-only; the engine never updates or deletes them.
package decision
