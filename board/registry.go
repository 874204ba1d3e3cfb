package board

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrModelMismatch reports a switch to an execution-model group that
// was never registered.
var ErrModelMismatch = errors.New("execution model mismatch")

// Standard group names. The builder registers both; the sampling
// controller switches between them.
const (
	GroupFast     = "fast"
	GroupDetailed = "detailed"
)

// ModelKind tags the closed set of execution-model variants.
type ModelKind int

// Model kinds.
const (
	// ModelFast is the functional fast-forward model.
	ModelFast ModelKind = iota

	// ModelDetailed is the cycle-accurate timing model.
	ModelDetailed
)

// String returns the model kind name.
func (k ModelKind) String() string {
	switch k {
	case ModelFast:
		return "fast"
	case ModelDetailed:
		return "detailed"
	default:
		return "unknown"
	}
}

// accessMode returns the memory access mode the kind requires.
func (k ModelKind) accessMode() AccessMode {
	if k == ModelDetailed {
		return AccessModeTiming
	}
	return AccessModeFast
}

// Core is the capability set every execution-model variant shares.
// Both the functional emulator and the detailed timing core satisfy
// it over the same architectural state.
type Core interface {
	// Tick advances the core one step (one instruction for the fast
	// model, one cycle for the detailed model).
	Tick() error

	// Drain discards in-flight work so a model switch sees no pending
	// memory transactions. Architectural state is untouched.
	Drain()

	// Halted reports whether the core has retired HALT.
	Halted() bool

	// ExitCode returns the exit status after HALT.
	ExitCode() int64

	// SetHalted overwrites the halt state, carrying it across model
	// switches and checkpoint restores.
	SetHalted(halted bool, exitCode int64)

	// InstructionCount returns the shared retired-instruction count.
	InstructionCount() uint64
}

// Group is a named set of one execution-model instance per core slot.
type Group struct {
	Name  string
	Kind  ModelKind
	Cores []Core
}

// Registry holds the registered groups and tracks which one is
// active. Switch is the only way the active group changes.
type Registry struct {
	groups map[string]*Group
	active *Group
	memSys *MemorySystem
}

// NewRegistry creates a registry bound to the memory system whose mode
// it flips on switches.
func NewRegistry(memSys *MemorySystem) *Registry {
	return &Registry{
		groups: make(map[string]*Group),
		memSys: memSys,
	}
}

// Register adds a group. Group names are unique; core slot counts must
// match across groups.
func (r *Registry) Register(g *Group) error {
	if _, exists := r.groups[g.Name]; exists {
		return fmt.Errorf("group %q already registered", g.Name)
	}
	for _, other := range r.groups {
		if len(other.Cores) != len(g.Cores) {
			return fmt.Errorf(
				"group %q has %d core slots, group %q has %d",
				g.Name, len(g.Cores), other.Name, len(other.Cores))
		}
	}
	r.groups[g.Name] = g
	return nil
}

// Active returns the active group, or nil before the first switch.
func (r *Registry) Active() *Group {
	return r.active
}

// ActiveName returns the active group's name, or "" before the first
// switch.
func (r *Registry) ActiveName() string {
	if r.active == nil {
		return ""
	}
	return r.active.Name
}

// Switch makes the named group the one the engine ticks next. A switch
// to the already-active group is a no-op. Otherwise the outgoing
// group's cores are drained first, halt state carries over per slot,
// and the memory system's mode follows the incoming group's kind.
// Fails with ErrModelMismatch when the target was never registered.
func (r *Registry) Switch(target string) error {
	if r.active != nil && r.active.Name == target {
		return nil
	}

	incoming, ok := r.groups[target]
	if !ok {
		return fmt.Errorf("%w: group %q not registered", ErrModelMismatch, target)
	}

	if r.active != nil {
		for i, out := range r.active.Cores {
			out.Drain()
			incoming.Cores[i].SetHalted(out.Halted(), out.ExitCode())
		}
	}

	if r.memSys != nil {
		r.memSys.SetMode(incoming.Kind.accessMode())
	}

	logrus.WithFields(logrus.Fields{
		"from": r.ActiveName(),
		"to":   target,
		"mode": incoming.Kind.accessMode(),
	}).Info("execution model switch")

	r.active = incoming
	return nil
}
