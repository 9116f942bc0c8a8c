package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainSnapshot is the domain prefix for snapshot hashing. The version
// suffix enables future algorithm migration.
const DomainSnapshot = "sequent/snapshot/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalMap converts the snapshot to a map[string]any suitable for
// MarshalCanonical. All ordering inside the snapshot is already
// deterministic, so canonical serialization of the map is byte-stable.
//
// The graph version token is excluded: the hash identifies graph content,
// not which mutation produced it, so replays and fresh loads of the same
// plan hash identically.
func (s *Snapshot) CanonicalMap() map[string]any {
	components := make([]any, len(s.Components))
	for i, c := range s.Components {
		m := map[string]any{
			"id":          string(c.ID),
			"kind":        string(c.Kind),
			"name":        c.Name,
			"created_seq": c.CreatedSeq,
			"weight":      c.EffectiveWeight(),
		}
		if c.Phase != "" {
			m["phase"] = string(c.Phase)
		}
		if c.ManualIndex != nil {
			m["manual_index"] = *c.ManualIndex
		}
		components[i] = m
	}

	edges := make([]any, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = map[string]any{
			"from": string(e.From),
			"to":   string(e.To),
			"kind": string(e.Kind),
		}
	}

	phases := make([]any, len(s.Phases))
	for i, p := range s.Phases {
		phases[i] = map[string]any{
			"id":   string(p.ID),
			"name": p.Name,
			"rank": p.Rank,
		}
	}

	positions := make(map[string]any, len(s.Positions))
	for id, pos := range s.Positions {
		positions[string(id)] = map[string]any{
			"topo_rank":        pos.TopoRank,
			"earliest":         pos.Earliest,
			"on_critical_path": pos.OnCriticalPath,
			"pinned":           pos.Pinned,
		}
	}

	violations := make([]any, len(s.Violations))
	for i, v := range s.Violations {
		violations[i] = map[string]any{
			"kind":             string(v.Kind),
			"component":        string(v.Component),
			"dependency":       string(v.Dependency),
			"component_phase":  string(v.ComponentPhase),
			"dependency_phase": string(v.DependencyPhase),
		}
	}

	return map[string]any{
		"project":         string(s.Project),
		"components":      components,
		"edges":           edges,
		"phases":          phases,
		"order":           idsToAny(s.Order),
		"critical_path":   idsToAny(s.CriticalPath),
		"critical_length": s.CriticalLength,
		"positions":       positions,
		"violations":      violations,
	}
}

func idsToAny(ids []ComponentID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// Hash computes the content-addressed identity of the snapshot over its
// canonical JSON form. Two snapshots hash equal iff their graph content,
// computed order, and violations are identical.
func (s *Snapshot) Hash() (string, error) {
	canonical, err := MarshalCanonical(s.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("snapshot hash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
