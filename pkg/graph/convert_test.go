package graph

import (
	"context"
	"strings"
	"testing"

	"trellis/pkg/common"
	"trellis/pkg/identity"
	"trellis/pkg/ontology"
)

const carsOntologyFixture = `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xmlns:ex="http://example.org/cars#">
  <owl:Class rdf:about="http://example.org/cars#Car">
    <rdfs:label>Car</rdfs:label>
  </owl:Class>
  <owl:Class rdf:about="http://example.org/cars#SportsCar">
    <rdfs:subClassOf rdf:resource="http://example.org/cars#Car"/>
  </owl:Class>
  <owl:Class rdf:about="http://example.org/cars#Company"/>
  <owl:NamedIndividual rdf:about="http://example.org/cars#Porsche">
    <rdf:type rdf:resource="http://example.org/cars#Company"/>
    <ex:produces rdf:resource="http://example.org/cars#Porsche911"/>
  </owl:NamedIndividual>
  <owl:NamedIndividual rdf:about="http://example.org/cars#Porsche911">
    <rdf:type rdf:resource="http://example.org/cars#SportsCar"/>
  </owl:NamedIndividual>
</rdf:RDF>`

func singleChunk() common.Chunk {
	return common.Chunk{DocumentID: "doc", Index: 0, Text: "Alice works for Acme.", TokenCount: 6}
}

func walkAll(t *testing.T, chunks []common.Chunk, graphs []common.ExtractedGraph, resolver *ontology.Resolver) ([]common.Node, []common.Edge) {
	t.Helper()
	arena, roots, err := BuildArena(chunks, graphs, resolver)
	if err != nil {
		t.Fatalf("BuildArena() error: %v", err)
	}
	state := common.NewWalkState()
	var nodes []common.Node
	var edges []common.Edge
	for _, root := range roots {
		n, e, err := Walk(arena, root, state)
		if err != nil {
			t.Fatalf("Walk() error: %v", err)
		}
		nodes = append(nodes, n...)
		edges = append(edges, e...)
	}
	return nodes, edges
}

func TestBuildArenaLinksChunkAndEntities(t *testing.T) {
	graph := common.ExtractedGraph{
		Nodes: []common.ExtractedNode{
			{ID: "n1", Name: "Alice", Type: "Person", Description: "an engineer"},
			{ID: "n2", Name: "Acme", Type: "Company"},
		},
		Edges: []common.ExtractedEdge{
			{SourceNodeID: "n1", TargetNodeID: "n2", RelationshipName: "works_for", Properties: map[string]any{"weight": 0.8}},
		},
	}

	nodes, edges := walkAll(t, []common.Chunk{singleChunk()}, []common.ExtractedGraph{graph}, nil)

	// chunk, two entities, two type nodes
	if len(nodes) != 5 {
		t.Fatalf("len(nodes) = %d, want 5", len(nodes))
	}

	aliceID := identity.DeriveID("Alice")
	personID := identity.DeriveID("Person")
	acmeID := identity.DeriveID("Acme")
	companyID := identity.DeriveID("Company")
	chunkID := identity.DeriveID("doc_chunk_0")

	found := make(map[string]common.Edge)
	for _, e := range edges {
		found[e.Key()] = e
	}
	for _, want := range []string{
		common.EdgeKey(aliceID, personID, "is_entity_type"),
		common.EdgeKey(acmeID, companyID, "is_entity_type"),
		common.EdgeKey(aliceID, acmeID, "works_for"),
		common.EdgeKey(chunkID, aliceID, "contains"),
		common.EdgeKey(chunkID, acmeID, "contains"),
		common.EdgeKey(chunkID, personID, "contains_entity_type"),
		common.EdgeKey(chunkID, companyID, "contains_entity_type"),
	} {
		if _, ok := found[want]; !ok {
			t.Fatalf("edge %s missing, got %v", want, found)
		}
	}
	if len(edges) != 7 {
		t.Fatalf("len(edges) = %d, want 7", len(edges))
	}

	worksFor := found[common.EdgeKey(aliceID, acmeID, "works_for")]
	if worksFor.Properties["weight"] != 0.8 {
		t.Fatalf("weight not recovered from edge properties: %v", worksFor.Properties)
	}

	for _, n := range nodes {
		if n.ID == aliceID && n.Properties["description"] != "an engineer" {
			t.Fatalf("entity description lost: %v", n.Properties)
		}
	}
}

func TestBuildArenaLengthMismatch(t *testing.T) {
	_, _, err := BuildArena([]common.Chunk{singleChunk()}, nil, nil)
	if err == nil {
		t.Fatalf("expected error for chunk/graph count mismatch")
	}
}

func TestBuildArenaRejectsUnnamedNode(t *testing.T) {
	graph := common.ExtractedGraph{
		Nodes: []common.ExtractedNode{{ID: "n1", Type: "Person"}},
	}
	_, _, err := BuildArena([]common.Chunk{singleChunk()}, []common.ExtractedGraph{graph}, nil)
	if err == nil || !strings.Contains(err.Error(), "no name") {
		t.Fatalf("expected validation error for unnamed node, got %v", err)
	}
}

func TestBuildArenaDropsDanglingEdge(t *testing.T) {
	graph := common.ExtractedGraph{
		Nodes: []common.ExtractedNode{{ID: "n1", Name: "Alice", Type: "Person"}},
		Edges: []common.ExtractedEdge{
			{SourceNodeID: "n1", TargetNodeID: "ghost", RelationshipName: "knows"},
		},
	}

	_, edges := walkAll(t, []common.Chunk{singleChunk()}, []common.ExtractedGraph{graph}, nil)
	for _, e := range edges {
		if e.Name == "knows" {
			t.Fatalf("dangling edge must be dropped, got %v", e)
		}
	}
}

func TestBuildArenaOntologyCanonicalization(t *testing.T) {
	resolver, err := ontology.NewResolver(ontology.NewResolverParams{
		Sources: []ontology.Source{{Name: "cars.owl", Reader: strings.NewReader(carsOntologyFixture)}},
	})
	if err != nil {
		t.Fatalf("NewResolver() error: %v", err)
	}

	graph := common.ExtractedGraph{
		Nodes: []common.ExtractedNode{
			// Misspelled mention; must collapse onto the ontology term.
			{ID: "n1", Name: "porshe", Type: "company"},
		},
	}

	nodes, edges := walkAll(t, []common.Chunk{singleChunk()}, []common.ExtractedGraph{graph}, resolver)

	porscheID := identity.DeriveID("Porsche")
	var porsche *common.Node
	for i := range nodes {
		if nodes[i].ID == porscheID {
			porsche = &nodes[i]
		}
	}
	if porsche == nil {
		t.Fatalf("entity id must derive from the canonical name")
	}
	if porsche.Properties["name"] != "Porsche" || porsche.Properties["type"] != "Company" {
		t.Fatalf("canonical names not applied: %v", porsche.Properties)
	}

	edgeSet := make(map[string]bool)
	for _, e := range edges {
		edgeSet[e.Key()] = true
	}
	p911 := identity.DeriveID("Porsche911")
	sportsCar := identity.DeriveID("SportsCar")
	car := identity.DeriveID("Car")
	for _, want := range []string{
		common.EdgeKey(porscheID, p911, "produces"),
		common.EdgeKey(p911, sportsCar, "is_a"),
		common.EdgeKey(sportsCar, car, "is_a"),
	} {
		if !edgeSet[want] {
			t.Fatalf("ontology subgraph edge %s missing, got %v", want, edgeSet)
		}
	}
}

func TestBuildGraphDedupesAcrossChunks(t *testing.T) {
	client, err := NewGraphClient(NewGraphClientParams{})
	if err != nil {
		t.Fatalf("NewGraphClient() error: %v", err)
	}

	chunks := []common.Chunk{
		{DocumentID: "doc", Index: 0, Text: "Alice.", TokenCount: 2},
		{DocumentID: "doc", Index: 1, Text: "Alice again.", TokenCount: 3},
	}
	extracted := common.ExtractedGraph{
		Nodes: []common.ExtractedNode{{ID: "n1", Name: "Alice", Type: "Person"}},
	}
	graphs := []common.ExtractedGraph{extracted, extracted}

	result, err := client.BuildGraph(context.Background(), chunks, graphs, nil)
	if err != nil {
		t.Fatalf("BuildGraph() error: %v", err)
	}

	aliceID := identity.DeriveID("Alice")
	count := 0
	for _, n := range result.Nodes {
		if n.ID == aliceID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("entity mentioned in two chunks must be emitted once, got %d", count)
	}

	points := 0
	for _, p := range result.DataPoints {
		if p.ID == aliceID {
			points++
			if p.EmbedField != "name" || p.Payload["name"] != "Alice" {
				t.Fatalf("data point payload = %v embed %q", p.Payload, p.EmbedField)
			}
		}
	}
	if points != 1 {
		t.Fatalf("expected one data point for the entity, got %d", points)
	}
}

func TestBuildGraphIdempotentAgainstIndex(t *testing.T) {
	client, err := NewGraphClient(NewGraphClientParams{})
	if err != nil {
		t.Fatalf("NewGraphClient() error: %v", err)
	}

	chunks := []common.Chunk{singleChunk()}
	graphs := []common.ExtractedGraph{{
		Nodes: []common.ExtractedNode{{ID: "n1", Name: "Alice", Type: "Person"}},
	}}

	first, err := client.BuildGraph(context.Background(), chunks, graphs, nil)
	if err != nil {
		t.Fatalf("BuildGraph() error: %v", err)
	}

	existing := common.NewExistingGraphIndex()
	for _, n := range first.Nodes {
		existing.Nodes[n.ID] = struct{}{}
	}
	for _, e := range first.Edges {
		existing.Edges[e.Key()] = struct{}{}
	}

	second, err := client.BuildGraph(context.Background(), chunks, graphs, existing)
	if err != nil {
		t.Fatalf("BuildGraph() error: %v", err)
	}
	if len(second.Nodes) != 0 || len(second.Edges) != 0 {
		t.Fatalf("re-ingesting identical content must write nothing, got %d nodes, %d edges",
			len(second.Nodes), len(second.Edges))
	}
}
