package ai

import (
	"context"
	"testing"
)

type cannedClient struct {
	response string
}

func (c *cannedClient) GenerateCompletion(ctx context.Context, prompt string, opts ...GenerateOption) (string, error) {
	return c.response, nil
}

func (c *cannedClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...GenerateOption) error {
	return UnmarshalFlexible(c.response, out)
}

func (c *cannedClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, nil
}

func (c *cannedClient) GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error) {
	return nil, nil
}

func (c *cannedClient) ResetMetrics() {}

func (c *cannedClient) GetMetrics() ModelMetrics { return ModelMetrics{} }

func TestExtractGraph(t *testing.T) {
	client := &cannedClient{response: `{
		"nodes": [
			{"id": "n1", "name": " Alice ", "type": "PERSON", "description": "an engineer"},
			{"id": "n2", "name": "Acme", "type": "ORGANIZATION", "description": ""}
		],
		"edges": [
			{"source_node_id": "n1", "target_node_id": "n2", "relationship_name": "works_for", "weight": 0.8}
		]
	}`}

	graph, err := ExtractGraph(context.Background(), client, "Alice works for Acme.")
	if err != nil {
		t.Fatalf("ExtractGraph() error: %v", err)
	}

	if len(graph.Nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(graph.Nodes))
	}
	if graph.Nodes[0].Name != "Alice" {
		t.Fatalf("node name not trimmed: %q", graph.Nodes[0].Name)
	}
	if len(graph.Edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(graph.Edges))
	}
	edge := graph.Edges[0]
	if edge.SourceNodeID != "n1" || edge.TargetNodeID != "n2" || edge.RelationshipName != "works_for" {
		t.Fatalf("edge = %+v", edge)
	}
	if edge.Properties["weight"] != 0.8 {
		t.Fatalf("weight not carried into edge properties: %v", edge.Properties)
	}
}

func TestExtractGraphZeroWeightOmitted(t *testing.T) {
	client := &cannedClient{response: `{
		"nodes": [
			{"id": "n1", "name": "A", "type": "CONCEPT", "description": ""},
			{"id": "n2", "name": "B", "type": "CONCEPT", "description": ""}
		],
		"edges": [
			{"source_node_id": "n1", "target_node_id": "n2", "relationship_name": "relates_to", "weight": 0}
		]
	}`}

	graph, err := ExtractGraph(context.Background(), client, "A relates to B.")
	if err != nil {
		t.Fatalf("ExtractGraph() error: %v", err)
	}
	if graph.Edges[0].Properties != nil {
		t.Fatalf("zero weight must not produce properties: %v", graph.Edges[0].Properties)
	}
}
