package decision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// hashEnvelope is what actually gets hashed: the ruleset version is part of
// the key so activating a new version makes every prior entry unreachable
// without destructive invalidation.
type hashEnvelope struct {
	PolicyVersion string `json:"policyVersion"`
	Context       any    `json:"context"`
}

// ContextHash canonicalizes (policyVersion, context) with RFC 8785 (JCS) and
// returns its SHA-256 hex digest plus the canonical context JSON.
//
// JCS gives byte-identical output regardless of map iteration order, which
// is what makes the hash a sound cache key: the same ruleset version and
// profile always hash the same.
func ContextHash(policyVersion string, context any) (hash string, canonical string, err error) {
	raw, err := json.Marshal(hashEnvelope{PolicyVersion: policyVersion, Context: context})
	if err != nil {
		return "", "", fmt.Errorf("marshal decision context: %w", err)
	}

	canonicalBytes, err := jcs.Transform(raw)
	if err != nil {
		return "", "", fmt.Errorf("canonicalize decision context: %w", err)
	}

	sum := sha256.Sum256(canonicalBytes)

	// Keep only the context portion for the audit record; the version is
	// recorded separately.
	ctxRaw, err := json.Marshal(context)
	if err != nil {
		return "", "", fmt.Errorf("marshal context: %w", err)
	}
	ctxCanonical, err := jcs.Transform(ctxRaw)
	if err != nil {
		return "", "", fmt.Errorf("canonicalize context: %w", err)
	}

	return hex.EncodeToString(sum[:]), string(ctxCanonical), nil
}
