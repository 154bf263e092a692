package graph

import (
	"fmt"

	"github.com/google/uuid"

	"trellis/pkg/common"
	"trellis/pkg/identity"
	"trellis/pkg/logger"
	"trellis/pkg/ontology"
)

// Type names for the synthesized portions of the graph.
const (
	typeDocumentChunk      = "DocumentChunk"
	typeEntityType         = "EntityType"
	typeOntologyClass      = "OntologyClass"
	typeOntologyIndividual = "OntologyIndividual"
)

// Relationship names synthesized during conversion.
const (
	relationIsEntityType       = "is_entity_type"
	relationContains           = "contains"
	relationContainsEntityType = "contains_entity_type"
)

// BuildArena converts flat per-chunk extracted graphs into typed arena
// objects rooted at their chunks: one object per distinct entity and
// entity type (identity derived from the normalized name), an
// is_entity_type relation from each entity to its type, and
// contains/contains_entity_type relations from each chunk to every
// node it mentions.
//
// When an ontology resolver is supplied, entity names are canonicalized
// against individuals and type names against classes before identity
// derivation, and a matched term's ontology subgraph is folded into the
// arena. Ontology failures are logged per entity and never abort the
// conversion.
//
// Malformed input (mismatched list lengths, nodes without names) is a
// validation error and aborts the whole batch.
func BuildArena(chunks []common.Chunk, graphs []common.ExtractedGraph, resolver *ontology.Resolver) (*common.Arena, []uuid.UUID, error) {
	if len(chunks) != len(graphs) {
		return nil, nil, fmt.Errorf("chunk/graph count mismatch: %d chunks, %d graphs", len(chunks), len(graphs))
	}

	arena := common.NewArena()
	roots := make([]uuid.UUID, 0, len(chunks))

	for i := range chunks {
		chunk := chunks[i]
		if chunk.ID == uuid.Nil {
			chunk.ID = identity.DeriveID(chunkName(chunk.DocumentID, chunk.Index))
		}
		root, err := convertChunk(arena, chunk, graphs[i], resolver)
		if err != nil {
			return nil, nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		roots = append(roots, root)
	}

	return arena, roots, nil
}

func convertChunk(arena *common.Arena, chunk common.Chunk, extracted common.ExtractedGraph, resolver *ontology.Resolver) (uuid.UUID, error) {
	entityIDs := make([]uuid.UUID, 0, len(extracted.Nodes))
	typeIDs := make(map[uuid.UUID]struct{})
	localIDs := make(map[string]uuid.UUID, len(extracted.Nodes))

	for _, node := range extracted.Nodes {
		if node.Name == "" {
			return uuid.Nil, fmt.Errorf("extracted node %q has no name", node.ID)
		}
		if node.Type == "" {
			return uuid.Nil, fmt.Errorf("extracted node %q has no type", node.Name)
		}

		name := canonicalize(resolver, node.Name, ontology.CategoryIndividuals)
		typeName := canonicalize(resolver, node.Type, ontology.CategoryClasses)

		entityID := identity.DeriveID(name)
		typeID := identity.DeriveID(typeName)

		props := make(map[string]any, len(node.Properties)+1)
		for k, v := range node.Properties {
			props[k] = v
		}
		if node.Description != "" {
			props["description"] = node.Description
		}

		arena.Put(&common.Object{
			ID:       entityID,
			Name:     name,
			TypeName: typeName,
			Props:    props,
			Relations: []common.Relation{
				common.Single(relationIsEntityType, typeID),
			},
		})
		arena.Put(&common.Object{
			ID:       typeID,
			Name:     typeName,
			TypeName: typeEntityType,
			Props:    map[string]any{},
		})

		if node.ID != "" {
			localIDs[node.ID] = entityID
		}
		localIDs[identity.Normalize(node.Name)] = entityID

		entityIDs = append(entityIDs, entityID)
		typeIDs[typeID] = struct{}{}

		enrichFromOntology(arena, resolver, entityID, name)
	}

	for _, edge := range extracted.Edges {
		sourceID, okS := localIDs[resolveLocalKey(edge.SourceNodeID)]
		targetID, okT := localIDs[resolveLocalKey(edge.TargetNodeID)]
		if !okS || !okT {
			// The extraction model referenced a node it never
			// produced; the edge is unusable.
			logger.Warn("[Graph] Dropping edge with unknown endpoint",
				"source", edge.SourceNodeID, "target", edge.TargetNodeID, "name", edge.RelationshipName)
			continue
		}
		if edge.RelationshipName == "" {
			return uuid.Nil, fmt.Errorf("extracted edge %s -> %s has no relationship name", edge.SourceNodeID, edge.TargetNodeID)
		}

		source, _ := arena.Get(sourceID)
		source.Relations = append(source.Relations, relationFromExtractedEdge(edge, targetID))
	}

	typeList := make([]uuid.UUID, 0, len(typeIDs))
	for id := range typeIDs {
		typeList = append(typeList, id)
	}

	arena.Put(&common.Object{
		ID:       chunk.ID,
		Name:     chunkName(chunk.DocumentID, chunk.Index),
		TypeName: typeDocumentChunk,
		Props: map[string]any{
			"document_id": chunk.DocumentID,
			"chunk_index": chunk.Index,
			"text":        chunk.Text,
			"token_count": chunk.TokenCount,
		},
		Relations: []common.Relation{
			common.Many(relationContains, entityIDs...),
			common.Many(relationContainsEntityType, typeList...),
		},
	})

	return chunk.ID, nil
}

// relationFromExtractedEdge lifts an extracted edge into the tagged
// relation form, recovering weight metadata from the edge properties.
func relationFromExtractedEdge(edge common.ExtractedEdge, target uuid.UUID) common.Relation {
	spec := edgeSpecFromProperties(edge.RelationshipName, edge.Properties)
	if spec == nil {
		return common.Single(edge.RelationshipName, target)
	}
	return common.SingleWithEdge(edge.RelationshipName, spec, target)
}

func edgeSpecFromProperties(relName string, props map[string]any) *common.EdgeSpec {
	if len(props) == 0 {
		return nil
	}

	spec := &common.EdgeSpec{RelationshipType: relName}
	found := false

	if raw, ok := props["weight"]; ok {
		if w, ok := asFloat(raw); ok {
			spec.Weight = &w
			found = true
		}
	}
	if raw, ok := props["weights"]; ok {
		if m, ok := raw.(map[string]any); ok {
			weights := make(map[string]float64, len(m))
			for name, v := range m {
				if w, ok := asFloat(v); ok {
					weights[name] = w
				}
			}
			if len(weights) > 0 {
				spec.Weights = weights
				found = true
			}
		}
	}

	if !found {
		return nil
	}
	return spec
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

func resolveLocalKey(ref string) string {
	// Extraction models reference nodes by local id or, when sloppy,
	// by name; both resolve through the same table.
	return ref
}

func canonicalize(resolver *ontology.Resolver, name string, category ontology.Category) string {
	if resolver == nil {
		return name
	}
	term, err := resolver.FindClosestMatch(name, category)
	if err != nil {
		logger.Warn("[Graph] Ontology lookup failed", "name", name, "err", err)
		return name
	}
	if term == nil {
		return name
	}
	return term.Name()
}

// enrichFromOntology folds the matched term's subgraph into the arena.
// The root term derives to the same id as the entity, so the subgraph
// attaches naturally; sibling entities are unaffected by a failure
// here.
func enrichFromOntology(arena *common.Arena, resolver *ontology.Resolver, entityID uuid.UUID, name string) {
	if resolver == nil {
		return
	}
	terms, relations, root, err := resolver.Subgraph(name, ontology.CategoryIndividuals, true)
	if err != nil {
		logger.Warn("[Graph] Ontology subgraph extraction failed", "name", name, "err", err)
		return
	}
	if root == nil {
		return
	}

	termID := func(t *ontology.Term) uuid.UUID {
		if t.IRI == root.IRI {
			return entityID
		}
		return identity.DeriveID(t.Name())
	}

	for _, term := range terms {
		if term.IRI == root.IRI {
			continue
		}
		typeName := typeOntologyIndividual
		if term.Category == ontology.CategoryClasses {
			typeName = typeOntologyClass
		}
		arena.Put(&common.Object{
			ID:       termID(term),
			Name:     term.Name(),
			TypeName: typeName,
			Props:    map[string]any{},
		})
	}

	for _, rel := range relations {
		source, ok := arena.Get(termID(rel.Source))
		if !ok {
			continue
		}
		source.Relations = append(source.Relations, common.Single(rel.Name, termID(rel.Target)))
	}
}
