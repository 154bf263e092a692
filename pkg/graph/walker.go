package graph

import (
	"fmt"

	"github.com/google/uuid"

	"trellis/pkg/common"
	"trellis/pkg/identity"
)

// metadataField is reserved on every object and never surfaces as a
// node property.
const metadataField = "metadata"

// Walk flattens the object graph reachable from rootID into canonical
// nodes and edges, deduplicated through the caller-owned state.
//
// Termination does not depend on the shape of the input: an object
// already in state.AddedNodes is never descended again, so reference
// cycles of any length (self-loops included) end the recursion, and a
// sub-object shared by many parents is processed once. Each
// relationship instance is descended at most once via
// state.VisitedRelations; each edge is emitted at most once via its
// composite key. Cost is O(V+E) over the distinct reachable set.
//
// Sibling traversal order follows the declared relation order and is
// reproducible for a given arena, but is not part of the contract.
func Walk(arena *common.Arena, rootID uuid.UUID, state *common.WalkState) ([]common.Node, []common.Edge, error) {
	return walk(arena, rootID, state, common.Now())
}

func walk(arena *common.Arena, rootID uuid.UUID, state *common.WalkState, now timeValue) ([]common.Node, []common.Edge, error) {
	if _, done := state.AddedNodes[rootID]; done {
		return nil, nil, nil
	}

	root, ok := arena.Get(rootID)
	if !ok {
		return nil, nil, fmt.Errorf("object %s not present in arena", rootID)
	}

	nodes := []common.Node{buildNode(root)}
	state.AddedNodes[rootID] = struct{}{}
	var edges []common.Edge

	for _, rel := range root.Relations {
		relName := relationshipName(rel)

		for _, targetID := range rel.Targets {
			visitKey := rootID.String() + "|" + rel.Field + "|" + targetID.String()
			edgeKey := common.EdgeKey(rootID, targetID, relName)

			if _, seen := state.VisitedRelations[visitKey]; seen {
				// The relationship instance was already descended;
				// only make sure the edge itself exists.
				if _, has := state.AddedEdges[edgeKey]; !has {
					edges = append(edges, buildEdge(rel.Spec, rootID, targetID, relName, now))
					state.AddedEdges[edgeKey] = struct{}{}
				}
				continue
			}
			state.VisitedRelations[visitKey] = struct{}{}

			if _, has := state.AddedEdges[edgeKey]; !has {
				edges = append(edges, buildEdge(rel.Spec, rootID, targetID, relName, now))
				state.AddedEdges[edgeKey] = struct{}{}
			}

			childNodes, childEdges, err := walk(arena, targetID, state, now)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, childNodes...)
			edges = append(edges, childEdges...)
		}
	}

	return nodes, edges, nil
}

// buildNode assembles the node's property map from the object's scalar
// fields plus its declared type. Relation fields and the reserved
// metadata field never appear.
func buildNode(obj *common.Object) common.Node {
	props := make(map[string]any, len(obj.Props)+2)
	for k, v := range obj.Props {
		if k == metadataField {
			continue
		}
		props[k] = v
	}
	if obj.Name != "" {
		props["name"] = obj.Name
	}
	props["type"] = obj.TypeName

	return common.Node{
		ID:         obj.ID,
		Type:       obj.TypeName,
		Properties: props,
	}
}

// relationshipName picks the edge name for a relation: the EdgeSpec
// override when present, otherwise the field name, both normalized so
// textual variants collapse to one key.
func relationshipName(rel common.Relation) string {
	if rel.Spec != nil && rel.Spec.RelationshipType != "" {
		return identity.Normalize(rel.Spec.RelationshipType)
	}
	return identity.Normalize(rel.Field)
}
