package ai

import (
	"context"
	"fmt"
	"strings"

	"trellis/pkg/common"
)

var defaultEntityTypes = []string{
	"ORGANIZATION", "PERSON", "LOCATION", "CONCEPT", "CREATIVE_WORK", "DATE", "PRODUCT", "EVENT",
}

type extractNode struct {
	ID          string `json:"id" jsonschema_description:"Short identifier unique within this response, referenced by edges"`
	Name        string `json:"name" jsonschema_description:"Display name of the entity as mentioned in the text"`
	Type        string `json:"type" jsonschema_description:"One of the provided entity types"`
	Description string `json:"description" jsonschema_description:"Comprehensive description of the entity's attributes, activities and information provided by the source."`
}

type extractEdge struct {
	SourceNodeID     string  `json:"source_node_id" jsonschema_description:"Id of the source node, as assigned in the nodes list"`
	TargetNodeID     string  `json:"target_node_id" jsonschema_description:"Id of the target node, as assigned in the nodes list"`
	RelationshipName string  `json:"relationship_name" jsonschema_description:"Short snake_case verb phrase naming the relationship"`
	Weight           float64 `json:"weight" jsonschema_description:"A numeric score (0.0-1.0) indicating how strongly the text supports the relationship"`
}

type extractResponse struct {
	Nodes []extractNode `json:"nodes" jsonschema_description:"Entities identified in the text"`
	Edges []extractEdge `json:"edges" jsonschema_description:"Relationships identified in the text"`
}

// ExtractGraph asks the model for a flat knowledge graph of the given
// text, constrained to the extraction schema. Node ids in the result
// are extraction-local; canonical identity is derived downstream from
// the names.
func ExtractGraph(
	ctx context.Context,
	client GraphAIClient,
	text string,
	entityTypes ...string,
) (common.ExtractedGraph, error) {
	types := entityTypes
	if len(types) == 0 {
		types = defaultEntityTypes
	}
	typeList := strings.Join(types, ",")
	systemPrompt := fmt.Sprintf(ExtractGraphPrompt, typeList, typeList, typeList)

	var res extractResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"extract_graph",
		"Extract a knowledge graph of entities and relationships from a provided document.",
		text,
		&res,
		WithSystemPrompts(systemPrompt),
	)
	if err != nil {
		return common.ExtractedGraph{}, err
	}

	graph := common.ExtractedGraph{
		Nodes: make([]common.ExtractedNode, 0, len(res.Nodes)),
		Edges: make([]common.ExtractedEdge, 0, len(res.Edges)),
	}
	for _, n := range res.Nodes {
		graph.Nodes = append(graph.Nodes, common.ExtractedNode{
			ID:          n.ID,
			Name:        strings.TrimSpace(n.Name),
			Type:        strings.TrimSpace(n.Type),
			Description: strings.TrimSpace(n.Description),
		})
	}
	for _, e := range res.Edges {
		edge := common.ExtractedEdge{
			SourceNodeID:     e.SourceNodeID,
			TargetNodeID:     e.TargetNodeID,
			RelationshipName: strings.TrimSpace(e.RelationshipName),
		}
		if e.Weight > 0 {
			edge.Properties = map[string]any{"weight": e.Weight}
		}
		graph.Edges = append(graph.Edges, edge)
	}

	return graph, nil
}
