package graph

import (
	"time"

	"github.com/google/uuid"

	"trellis/pkg/common"
)

type timeValue = time.Time

// ResolveEdgeProperties normalizes a relation's metadata into the flat
// property map attached to an edge. The four base properties are
// always present; weight fields appear only when an EdgeSpec carries
// them. A scalar weight and named weights may coexist.
func ResolveEdgeProperties(spec *common.EdgeSpec, source, target uuid.UUID, relName string, now time.Time) map[string]any {
	props := map[string]any{
		"source_node_id":    source.String(),
		"target_node_id":    target.String(),
		"relationship_name": relName,
		"updated_at":        now,
	}
	if spec == nil {
		return props
	}
	if spec.Weight != nil {
		props["weight"] = *spec.Weight
	}
	for name, value := range spec.Weights {
		props["weight_"+name] = value
	}
	return props
}

func buildEdge(spec *common.EdgeSpec, source, target uuid.UUID, relName string, now time.Time) common.Edge {
	return common.Edge{
		SourceID:   source,
		TargetID:   target,
		Name:       relName,
		Properties: ResolveEdgeProperties(spec, source, target, relName, now),
	}
}
