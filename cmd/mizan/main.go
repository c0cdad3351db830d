// Mizan is a policy derivation and agent governance engine for GRC
// platforms.
//
// It derives applicable compliance baselines, packages, and templates
// from an organization profile via versioned rulesets, and governs
// which actions autonomous agents may execute unsupervised versus
// which require SLA-bound human approval, subject to
// separation-of-duties constraints.
//
// Usage:
//
//	# Start the engine with default configuration
//	mizan run
//
//	# Start with a custom configuration file
//	mizan run --config /path/to/config.yaml
//
//	# Validate ruleset documents
//	mizan lint --dir rulesets/
//
//	# One-shot scope derivation from a profile file
//	mizan derive --tenant acme --profile profile.json
//
//	# Query the decision audit trail
//	mizan decisions --tenant acme --limit 20
//
//	# Show version information
//	mizan version
package main

func main() {
	Execute()
}
