package domain

// Intent is the coarse question type detected for a query. It selects which
// provenance classes get boosted during arbitration.
type Intent string

const (
	IntentFact Intent = "fact"
	IntentHow  Intent = "how"
	IntentWhy  Intent = "why"
)

// ConflictPolicy selects how two candidates sharing an assertion key with
// close confidence are resolved.
type ConflictPolicy string

const (
	ConflictHierarchical ConflictPolicy = "hierarchical"
	ConflictConfidence   ConflictPolicy = "confidence"
	ConflictRecency      ConflictPolicy = "recency"
	ConflictUncertain    ConflictPolicy = "uncertain"
)

func ValidConflictPolicy(p string) bool {
	switch ConflictPolicy(p) {
	case ConflictHierarchical, ConflictConfidence, ConflictRecency, ConflictUncertain:
		return true
	}
	return false
}

// ArbitrationProfile is the learned weight vector over provenance classes.
// It always sums to 1.0 with each component at or above the configured floor.
// Profiles are immutable snapshots: the learner builds a new value and swaps
// it in rather than mutating in place.
type ArbitrationProfile struct {
	Base        float64 `json:"base"`
	Episodic    float64 `json:"episodic"`
	Procedural  float64 `json:"procedural"`
	Abstraction float64 `json:"abstraction"`
}

// UniformProfile returns the default profile with equal weight per class.
func UniformProfile() ArbitrationProfile {
	return ArbitrationProfile{Base: 0.25, Episodic: 0.25, Procedural: 0.25, Abstraction: 0.25}
}

// Weight returns the weight of a single provenance class.
func (p ArbitrationProfile) Weight(class ProvenanceClass) float64 {
	switch class {
	case ProvenanceEpisodic:
		return p.Episodic
	case ProvenanceProcedural:
		return p.Procedural
	case ProvenanceAbstraction:
		return p.Abstraction
	default:
		return p.Base
	}
}

func (p *ArbitrationProfile) set(class ProvenanceClass, w float64) {
	switch class {
	case ProvenanceEpisodic:
		p.Episodic = w
	case ProvenanceProcedural:
		p.Procedural = w
	case ProvenanceAbstraction:
		p.Abstraction = w
	default:
		p.Base = w
	}
}

// Sum returns the total weight across classes.
func (p ArbitrationProfile) Sum() float64 {
	return p.Base + p.Episodic + p.Procedural + p.Abstraction
}

// Normalized returns a copy with every class floored at min and the vector
// rescaled to sum to 1.0. A degenerate all-zero profile falls back to uniform.
func (p ArbitrationProfile) Normalized(floor float64) ArbitrationProfile {
	out := p
	for _, class := range ProvenanceClasses {
		if out.Weight(class) < floor {
			out.set(class, floor)
		}
	}
	sum := out.Sum()
	if sum <= 0 {
		return UniformProfile()
	}
	for _, class := range ProvenanceClasses {
		out.set(class, out.Weight(class)/sum)
	}
	return out
}

// Shifted returns a copy with delta applied per class. Callers are expected
// to clamp and damp the delta before applying it.
func (p ArbitrationProfile) Shifted(delta map[ProvenanceClass]float64) ArbitrationProfile {
	out := p
	for class, d := range delta {
		out.set(class, out.Weight(class)+d)
	}
	return out
}

// SignalType is a downstream usefulness signal attached to a retrieved
// candidate, aggregated per provenance class by the learner.
type SignalType string

const (
	SignalUsed         SignalType = "used"
	SignalIgnored      SignalType = "ignored"
	SignalHelpful      SignalType = "helpful"
	SignalUnhelpful    SignalType = "unhelpful"
	SignalContradicted SignalType = "contradicted"
)

func ValidSignalType(s string) bool {
	switch SignalType(s) {
	case SignalUsed, SignalIgnored, SignalHelpful, SignalUnhelpful, SignalContradicted:
		return true
	}
	return false
}

// SignalAggregate is a count of one signal type for one provenance class
// over the learner's trailing window.
type SignalAggregate struct {
	Class  ProvenanceClass
	Signal SignalType
	Count  int
}
