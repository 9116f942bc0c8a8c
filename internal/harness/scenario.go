package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a sequencing test scenario: an optional initial plan,
// a series of mutations with expected outcomes, and assertions on the
// final snapshot.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Project is the project id. Defaults to "scenario".
	Project string `yaml:"project,omitempty"`

	// Plan declares initial components, dependencies, and phases,
	// applied before any steps run. Declaration order fixes created-at
	// ordering keys.
	Plan *PlanSpec `yaml:"plan,omitempty"`

	// Steps are mutations applied in order. Each step can expect a
	// structured rejection code or expect warnings on acceptance.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final snapshot.
	Assertions []Assertion `yaml:"assertions"`
}

// PlanSpec is the inline plan declaration of a scenario.
type PlanSpec struct {
	Phases       []PhaseSpec      `yaml:"phases,omitempty"`
	Components   []ComponentSpec  `yaml:"components"`
	Dependencies []DependencySpec `yaml:"dependencies,omitempty"`
}

// PhaseSpec declares a delivery phase.
type PhaseSpec struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
	Rank int    `yaml:"rank"`
}

// ComponentSpec declares a component.
type ComponentSpec struct {
	ID     string `yaml:"id"`
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name,omitempty"`
	Phase  string `yaml:"phase,omitempty"`
	Weight int64  `yaml:"weight,omitempty"`
}

// DependencySpec declares a dependency edge.
type DependencySpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Kind string `yaml:"kind,omitempty"`
}

// Step is one mutation in a scenario.
type Step struct {
	// Op names the mutation. One of the Op* constants.
	Op string `yaml:"op"`

	// Component fields (create_component, delete_component,
	// assign_phase, set_weight, set_manual_order, clear_manual_order).
	ID     string `yaml:"id,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Phase  string `yaml:"phase,omitempty"`
	Weight int64  `yaml:"weight,omitempty"`

	// Edge fields (assign_dependency, remove_dependency).
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Index is the manual position for set_manual_order.
	Index *int `yaml:"index,omitempty"`

	// Phases replaces the phase set for set_phases.
	Phases []PhaseSpec `yaml:"phases,omitempty"`

	// ExpectError is the structured rejection code this step must fail
	// with (e.g. "CYCLE_DETECTED"). The step must be rejected; the graph
	// must not change and the clock must not tick.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectWarnings lists warning codes the accepted mutation must
	// carry (e.g. "PHASE_ORDER_WARNING"). Subset match.
	ExpectWarnings []string `yaml:"expect_warnings,omitempty"`
}

// Step operations.
const (
	OpCreateComponent  = "create_component"
	OpDeleteComponent  = "delete_component"
	OpAssignDependency = "assign_dependency"
	OpRemoveDependency = "remove_dependency"
	OpSetManualOrder   = "set_manual_order"
	OpClearManualOrder = "clear_manual_order"
	OpSetPhases        = "set_phases"
	OpAssignPhase      = "assign_phase"
	OpSetWeight        = "set_weight"
)

var validOps = map[string]bool{
	OpCreateComponent:  true,
	OpDeleteComponent:  true,
	OpAssignDependency: true,
	OpRemoveDependency: true,
	OpSetManualOrder:   true,
	OpClearManualOrder: true,
	OpSetPhases:        true,
	OpAssignPhase:      true,
	OpSetWeight:        true,
}

// Assertion validates one aspect of the final snapshot.
type Assertion struct {
	// Type specifies the assertion type:
	// - "order": final topological order equals Components
	// - "critical_path": critical path equals Components
	// - "critical_length": critical path length equals Length
	// - "pinned": Component is pinned (at Index, when given)
	// - "unpinned": Component carries no manual index
	// - "violation_count": number of active violations equals Count
	// - "edge_count": number of edges equals Count
	// - "component_count": number of components equals Count
	Type string `yaml:"type"`

	// Components is the expected id sequence (order, critical_path).
	Components []string `yaml:"components,omitempty"`

	// Component is the subject id (pinned, unpinned).
	Component string `yaml:"component,omitempty"`

	// Index is the expected manual index (pinned).
	Index *int `yaml:"index,omitempty"`

	// Count is the expected count (violation_count, edge_count,
	// component_count).
	Count int `yaml:"count,omitempty"`

	// Length is the expected critical path length (critical_length).
	Length int64 `yaml:"length,omitempty"`
}

// Assertion type constants.
const (
	AssertOrder          = "order"
	AssertCriticalPath   = "critical_path"
	AssertCriticalLength = "critical_length"
	AssertPinned         = "pinned"
	AssertUnpinned       = "unpinned"
	AssertViolationCount = "violation_count"
	AssertEdgeCount      = "edge_count"
	AssertComponentCount = "component_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation
// (catches typos like "assertion:" vs "assertions:").
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Plan == nil && len(s.Steps) == 0 {
		return fmt.Errorf("a plan or at least one step is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Plan != nil {
		if len(s.Plan.Components) == 0 {
			return fmt.Errorf("plan: components list must be non-empty")
		}
		for i, comp := range s.Plan.Components {
			if comp.ID == "" {
				return fmt.Errorf("plan.components[%d]: id is required", i)
			}
			if comp.Kind == "" {
				return fmt.Errorf("plan.components[%d]: kind is required", i)
			}
		}
		for i, dep := range s.Plan.Dependencies {
			if dep.From == "" || dep.To == "" {
				return fmt.Errorf("plan.dependencies[%d]: from and to are required", i)
			}
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its operation.
func validateStep(index int, step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if !validOps[step.Op] {
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	switch step.Op {
	case OpCreateComponent:
		if step.ID == "" || step.Kind == "" {
			return fmt.Errorf("steps[%d]: create_component requires id and kind", index)
		}
	case OpDeleteComponent, OpClearManualOrder:
		if step.ID == "" {
			return fmt.Errorf("steps[%d]: %s requires id", index, step.Op)
		}
	case OpAssignDependency, OpRemoveDependency:
		if step.From == "" || step.To == "" {
			return fmt.Errorf("steps[%d]: %s requires from and to", index, step.Op)
		}
	case OpSetManualOrder:
		if step.ID == "" {
			return fmt.Errorf("steps[%d]: set_manual_order requires id", index)
		}
		if step.Index == nil {
			return fmt.Errorf("steps[%d]: set_manual_order requires index", index)
		}
	case OpSetPhases:
		for j, phase := range step.Phases {
			if phase.ID == "" {
				return fmt.Errorf("steps[%d].phases[%d]: id is required", index, j)
			}
		}
	case OpAssignPhase:
		if step.ID == "" {
			return fmt.Errorf("steps[%d]: assign_phase requires id", index)
		}
	case OpSetWeight:
		if step.ID == "" {
			return fmt.Errorf("steps[%d]: set_weight requires id", index)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOrder, AssertCriticalPath:
		if len(a.Components) == 0 {
			return fmt.Errorf("assertions[%d]: components list is required for %s", index, a.Type)
		}
	case AssertCriticalLength:
		if a.Length < 0 {
			return fmt.Errorf("assertions[%d]: length must be non-negative", index)
		}
	case AssertPinned, AssertUnpinned:
		if a.Component == "" {
			return fmt.Errorf("assertions[%d]: component is required for %s", index, a.Type)
		}
	case AssertViolationCount, AssertEdgeCount, AssertComponentCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
