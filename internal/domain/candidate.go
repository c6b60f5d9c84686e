package domain

import (
	"time"
)

// ProvenanceClass identifies where a belief record came from. The arbitration
// layer learns a weighting over these classes.
type ProvenanceClass string

const (
	ProvenanceBase        ProvenanceClass = "base"
	ProvenanceEpisodic    ProvenanceClass = "episodic"
	ProvenanceProcedural  ProvenanceClass = "procedural"
	ProvenanceAbstraction ProvenanceClass = "abstraction"
)

// ProvenanceClasses lists every class in a fixed order, used wherever
// deterministic iteration matters (renormalization, JSON output, tests).
var ProvenanceClasses = []ProvenanceClass{
	ProvenanceBase,
	ProvenanceEpisodic,
	ProvenanceProcedural,
	ProvenanceAbstraction,
}

func ValidProvenanceClass(p string) bool {
	switch ProvenanceClass(p) {
	case ProvenanceBase, ProvenanceEpisodic, ProvenanceProcedural, ProvenanceAbstraction:
		return true
	}
	return false
}

// Candidate is one retrieved belief record under consideration for ranking.
// All numeric fields are normalized into their documented ranges before any
// scoring logic sees them; see NormalizeCandidate.
type Candidate struct {
	ID            string
	Text          string
	Embedding     []float32
	RawSimilarity float64
	Tags          []string
	BeliefTags    []string
	AssertionKey  string
	Provenance    ProvenanceClass
	Timestamp     *time.Time
	SourceTrust   float64
	Confidence    float64
	Importance    float64
	TimesUsed     int
	Contradicted  bool
	ConflictScore float64
	Uncertain     bool
}

const (
	DefaultSourceTrust = 0.6
	DefaultConfidence  = 0.5
	DefaultImportance  = 0.5
)

// Hit is a raw result from the vector store: an id, a similarity in [0,1],
// and a loosely typed payload that NormalizeCandidate coerces exactly once.
type Hit struct {
	ID         string
	Similarity float64
	Payload    map[string]any
}

// NormalizeCandidate converts a raw store hit into a Candidate. Missing or
// malformed payload fields are coerced to documented defaults rather than
// rejected; this is the only place payload typing is handled.
func NormalizeCandidate(h Hit) Candidate {
	c := Candidate{
		ID:            h.ID,
		RawSimilarity: clamp01(h.Similarity),
		SourceTrust:   DefaultSourceTrust,
		Confidence:    DefaultConfidence,
		Importance:    DefaultImportance,
		Provenance:    ProvenanceBase,
	}
	if h.Payload == nil {
		return c
	}

	c.Text = asString(h.Payload["text"])
	c.AssertionKey = asString(h.Payload["assertion_key"])
	c.Tags = asStringSlice(h.Payload["tags"])
	c.BeliefTags = asStringSlice(h.Payload["belief_tags"])

	if p := asString(h.Payload["provenance"]); ValidProvenanceClass(p) {
		c.Provenance = ProvenanceClass(p)
	}
	if v, ok := asFloat(h.Payload["source_trust"]); ok {
		c.SourceTrust = clamp01(v)
	}
	if v, ok := asFloat(h.Payload["confidence"]); ok {
		c.Confidence = clamp01(v)
	}
	if v, ok := asFloat(h.Payload["importance"]); ok {
		c.Importance = clamp01(v)
	}
	if v, ok := asFloat(h.Payload["times_used"]); ok && v > 0 {
		c.TimesUsed = int(v)
	}
	if v, ok := asFloat(h.Payload["conflict_score"]); ok {
		c.ConflictScore = clamp01(v)
	}
	if b, ok := h.Payload["contradicted"].(bool); ok {
		c.Contradicted = b
	}
	if ts := asTime(h.Payload["timestamp"]); ts != nil {
		c.Timestamp = ts
	}
	if emb := asFloat32Slice(h.Payload["embedding"]); len(emb) > 0 {
		c.Embedding = emb
	}

	return c
}

// AgeDays returns the elapsed days since the candidate's timestamp relative
// to now. A missing timestamp is treated as maximally recent.
func (c Candidate) AgeDays(now time.Time) float64 {
	if c.Timestamp == nil {
		return 0
	}
	age := now.Sub(*c.Timestamp).Hours() / 24
	if age < 0 {
		return 0
	}
	return age
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func asFloat32Slice(v any) []float32 {
	switch s := v.(type) {
	case []float32:
		return s
	case []float64:
		out := make([]float32, len(s))
		for i, f := range s {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(s))
		for _, item := range s {
			if f, ok := asFloat(item); ok {
				out = append(out, float32(f))
			}
		}
		if len(out) != len(s) {
			return nil
		}
		return out
	}
	return nil
}

func asTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return &parsed
		}
	}
	return nil
}
