package graph

import (
	"strings"
	"testing"
	"time"

	"trellis/pkg/common"
)

func TestResolveEdgePropertiesBase(t *testing.T) {
	source, target := newID("a"), newID("b")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	props := ResolveEdgeProperties(nil, source, target, "knows", now)

	if len(props) != 4 {
		t.Fatalf("len(props) = %d, want 4: %v", len(props), props)
	}
	if props["source_node_id"] != source.String() {
		t.Fatalf("source_node_id = %v", props["source_node_id"])
	}
	if props["target_node_id"] != target.String() {
		t.Fatalf("target_node_id = %v", props["target_node_id"])
	}
	if props["relationship_name"] != "knows" {
		t.Fatalf("relationship_name = %v", props["relationship_name"])
	}
	if props["updated_at"] != now {
		t.Fatalf("updated_at = %v, want %v", props["updated_at"], now)
	}
}

func TestResolveEdgePropertiesWeights(t *testing.T) {
	weight := 0.8
	spec := &common.EdgeSpec{
		Weight:  &weight,
		Weights: map[string]float64{"trust": 0.9, "strength": 0.4},
	}

	props := ResolveEdgeProperties(spec, newID("a"), newID("b"), "knows", time.Now())

	if props["weight"] != 0.8 {
		t.Fatalf("weight = %v, want 0.8", props["weight"])
	}
	if props["weight_trust"] != 0.9 {
		t.Fatalf("weight_trust = %v, want 0.9", props["weight_trust"])
	}
	if props["weight_strength"] != 0.4 {
		t.Fatalf("weight_strength = %v, want 0.4", props["weight_strength"])
	}
	if len(props) != 7 {
		t.Fatalf("len(props) = %d, want 7: %v", len(props), props)
	}
}

func TestResolveEdgePropertiesNoWeightsWithoutSpec(t *testing.T) {
	props := ResolveEdgeProperties(nil, newID("a"), newID("b"), "knows", time.Now())
	for key := range props {
		if strings.HasPrefix(key, "weight") {
			t.Fatalf("unexpected weight property %q without metadata", key)
		}
	}
}
