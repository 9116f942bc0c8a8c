package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nbartley/sequent/internal/model"
	"github.com/nbartley/sequent/internal/store"
)

// Mutation kinds as journaled. Stable strings: they are the journal's
// wire format and replay routes on them.
const (
	mutComponentCreated   = "component_created"
	mutComponentDeleted   = "component_deleted"
	mutDependencyAssigned = "dependency_assigned"
	mutDependencyRemoved  = "dependency_removed"
	mutManualOrderSet     = "manual_order_set"
	mutManualOrderCleared = "manual_order_cleared"
	mutPhasesSet          = "phases_set"
	mutPhaseAssigned      = "phase_assigned"
	mutWeightSet          = "weight_set"
)

// mutationPayload is the decoded journal payload. One struct covers all
// kinds; replay reads only the fields its kind uses.
type mutationPayload struct {
	Op     string `json:"op"`
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Phase  string `json:"phase"`
	Weight int64  `json:"weight"`
	From   string `json:"from"`
	To     string `json:"to"`
	Index  int    `json:"index"`
	Phases []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Rank int    `json:"rank"`
	} `json:"phases"`
}

// Replay rebuilds a project's coordinator by re-applying its journal in
// sequence order. Mutations re-run through the same validation path as
// live edits; since only accepted mutations are journaled, any rejection
// or sequence mismatch means the journal is corrupt.
//
// The returned coordinator has the journal attached and its clock
// positioned after the last journaled mutation, so subsequent mutations
// continue the same sequence. Notifications are suppressed during
// replay - there are no subscribers to a graph being rebuilt.
func Replay(ctx context.Context, js *store.Store, project model.ProjectID, opts ...Option) (*Coordinator, error) {
	recs, err := js.ReadMutations(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", project, err)
	}

	c := New(project, opts...)
	c.journal = js
	c.replaying = true
	defer func() { c.replaying = false }()

	for _, rec := range recs {
		if err := c.applyRecord(ctx, rec); err != nil {
			return nil, fmt.Errorf("replay %s: seq %d (%s): %w", project, rec.Seq, rec.Kind, err)
		}
		// Replayed state carries the originally issued version token.
		c.mu.Lock()
		c.version = rec.Version
		c.mu.Unlock()
	}
	return c, nil
}

func (c *Coordinator) applyRecord(ctx context.Context, rec store.MutationRecord) error {
	var p mutationPayload
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	var res *MutationResult
	var err error
	switch rec.Kind {
	case mutComponentCreated:
		res, err = c.CreateComponent(ctx, model.ComponentSpec{
			ID:     model.ComponentID(p.ID),
			Kind:   model.ComponentKind(p.Kind),
			Name:   p.Name,
			Phase:  model.PhaseID(p.Phase),
			Weight: p.Weight,
		})
	case mutComponentDeleted:
		res, err = c.DeleteComponent(ctx, model.ComponentID(p.ID))
	case mutDependencyAssigned:
		res, err = c.AssignDependency(ctx, model.ComponentID(p.From), model.ComponentID(p.To), model.EdgeKind(p.Kind))
	case mutDependencyRemoved:
		res, err = c.RemoveDependency(ctx, model.ComponentID(p.From), model.ComponentID(p.To))
	case mutManualOrderSet:
		res, err = c.SetManualOrder(ctx, model.ComponentID(p.ID), p.Index)
	case mutManualOrderCleared:
		res, err = c.ClearManualOrder(ctx, model.ComponentID(p.ID))
	case mutPhasesSet:
		phases := make([]model.Phase, len(p.Phases))
		for i, ph := range p.Phases {
			phases[i] = model.Phase{ID: model.PhaseID(ph.ID), Name: ph.Name, Rank: ph.Rank}
		}
		res, err = c.SetPhases(ctx, phases)
	case mutPhaseAssigned:
		res, err = c.AssignPhase(ctx, model.ComponentID(p.ID), model.PhaseID(p.Phase))
	case mutWeightSet:
		res, err = c.SetWeight(ctx, model.ComponentID(p.ID), p.Weight)
	default:
		return fmt.Errorf("unknown mutation kind %q", rec.Kind)
	}
	if err != nil {
		return err
	}
	if res.Seq != rec.Seq {
		return fmt.Errorf("sequence mismatch: journal says %d, replay produced %d", rec.Seq, res.Seq)
	}
	return nil
}
