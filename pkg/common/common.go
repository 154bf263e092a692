package common

import (
	"time"

	"github.com/google/uuid"
)

// Node is a canonical graph vertex representing one entity or type.
// Properties never contain relationship-derived fields; those surface
// as edges.
type Node struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Edge is a canonical directed relation between two nodes. Properties
// always carry source_node_id, target_node_id, relationship_name and
// updated_at; weighted relations add weight and weight_<name> fields.
type Edge struct {
	SourceID   uuid.UUID      `json:"source_node_id"`
	TargetID   uuid.UUID      `json:"target_node_id"`
	Name       string         `json:"relationship_name"`
	Properties map[string]any `json:"properties"`
}

// Key returns the composite dedup key for an edge. Two edges with the
// same source, target and relationship name are the same edge.
func (e Edge) Key() string {
	return EdgeKey(e.SourceID, e.TargetID, e.Name)
}

func EdgeKey(source, target uuid.UUID, name string) string {
	return source.String() + "|" + target.String() + "|" + name
}

// EdgeSpec is optional metadata attached to a relation field: an
// override for the relationship name plus a scalar weight and/or a set
// of named weights. Both weight forms may coexist on one edge.
type EdgeSpec struct {
	RelationshipType string             `json:"relationship_type,omitempty"`
	Weight           *float64           `json:"weight,omitempty"`
	Weights          map[string]float64 `json:"weights,omitempty"`
}

// RelationKind tags the payload shape of a relation field.
type RelationKind int

const (
	RelationSingle RelationKind = iota
	RelationSingleWithEdge
	RelationMany
	RelationManyWithEdge
)

// Relation is one relationship field of an object: a tagged union over
// the four payload shapes the extraction layer produces. Targets hold
// arena ids, never embedded object references, so object graphs with
// cycles stay acyclic at the data-structure level.
type Relation struct {
	Field   string
	Kind    RelationKind
	Spec    *EdgeSpec
	Targets []uuid.UUID
}

// Single builds a plain single-target relation.
func Single(field string, target uuid.UUID) Relation {
	return Relation{Field: field, Kind: RelationSingle, Targets: []uuid.UUID{target}}
}

// SingleWithEdge builds a single-target relation carrying edge metadata.
func SingleWithEdge(field string, spec *EdgeSpec, target uuid.UUID) Relation {
	return Relation{Field: field, Kind: RelationSingleWithEdge, Spec: spec, Targets: []uuid.UUID{target}}
}

// Many builds a plain list relation.
func Many(field string, targets ...uuid.UUID) Relation {
	return Relation{Field: field, Kind: RelationMany, Targets: targets}
}

// ManyWithEdge builds a list relation carrying edge metadata.
func ManyWithEdge(field string, spec *EdgeSpec, targets ...uuid.UUID) Relation {
	return Relation{Field: field, Kind: RelationManyWithEdge, Spec: spec, Targets: targets}
}

// Object is one typed object in an arena: a derived identity, a
// declared type name, scalar properties and declared relation fields.
// The explicit field lists act as the object's schema descriptor, so
// the walker never needs reflection to classify fields.
type Object struct {
	ID        uuid.UUID
	Name      string
	TypeName  string
	Props     map[string]any
	Relations []Relation
}

// Arena holds every typed object of one extraction batch keyed by its
// derived id. Relation targets resolve through the arena.
type Arena struct {
	objects map[uuid.UUID]*Object
}

func NewArena() *Arena {
	return &Arena{objects: make(map[uuid.UUID]*Object)}
}

// Put registers an object. A second Put with the same id merges scalar
// properties and appends relations instead of replacing the object, so
// the same logical entity seen from two chunks stays one object.
func (a *Arena) Put(obj *Object) {
	existing, ok := a.objects[obj.ID]
	if !ok {
		a.objects[obj.ID] = obj
		return
	}
	for k, v := range obj.Props {
		if _, has := existing.Props[k]; !has {
			existing.Props[k] = v
		}
	}
	existing.Relations = append(existing.Relations, obj.Relations...)
}

// Get resolves an object by id.
func (a *Arena) Get(id uuid.UUID) (*Object, bool) {
	obj, ok := a.objects[id]
	return obj, ok
}

// Len returns the number of registered objects.
func (a *Arena) Len() int {
	return len(a.objects)
}

// WalkState is the per-batch dedup bookkeeping carried through walks:
// emitted node ids, emitted edge keys and visited relationship
// instances. It is owned by a single caller and must not be mutated
// concurrently.
type WalkState struct {
	AddedNodes       map[uuid.UUID]struct{}
	AddedEdges       map[string]struct{}
	VisitedRelations map[string]struct{}
}

func NewWalkState() *WalkState {
	return &WalkState{
		AddedNodes:       make(map[uuid.UUID]struct{}),
		AddedEdges:       make(map[string]struct{}),
		VisitedRelations: make(map[string]struct{}),
	}
}

// Clone returns an independent copy of the state. Used to keep a
// chunk's walk from corrupting shared state when it fails partway.
func (s *WalkState) Clone() *WalkState {
	c := NewWalkState()
	for id := range s.AddedNodes {
		c.AddedNodes[id] = struct{}{}
	}
	for k := range s.AddedEdges {
		c.AddedEdges[k] = struct{}{}
	}
	for k := range s.VisitedRelations {
		c.VisitedRelations[k] = struct{}{}
	}
	return c
}

// ExistingGraphIndex is a read-only snapshot of node ids and edge keys
// already persisted for a graph, fetched once per ingestion batch.
type ExistingGraphIndex struct {
	Nodes map[uuid.UUID]struct{}
	Edges map[string]struct{}
}

func NewExistingGraphIndex() *ExistingGraphIndex {
	return &ExistingGraphIndex{
		Nodes: make(map[uuid.UUID]struct{}),
		Edges: make(map[string]struct{}),
	}
}

// HasNode reports whether the node id is already persisted.
func (i *ExistingGraphIndex) HasNode(id uuid.UUID) bool {
	if i == nil {
		return false
	}
	_, ok := i.Nodes[id]
	return ok
}

// HasEdge reports whether the edge key is already persisted.
func (i *ExistingGraphIndex) HasEdge(key string) bool {
	if i == nil {
		return false
	}
	_, ok := i.Edges[key]
	return ok
}

// Chunk is one contiguous, token-budgeted segment of a source document.
// Chunks are the per-chunk roots of graph construction: every entity a
// chunk mentions is linked back to it with a contains edge.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	TokenCount int       `json:"token_count"`
}

// ExtractedNode is one node of the flat per-chunk graph produced by
// the LLM extraction collaborator. IDs are extraction-local; canonical
// identity is derived from the name.
type ExtractedNode struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// ExtractedEdge is one edge of the flat per-chunk graph, referencing
// extraction-local node ids.
type ExtractedEdge struct {
	SourceNodeID     string         `json:"source_node_id"`
	TargetNodeID     string         `json:"target_node_id"`
	RelationshipName string         `json:"relationship_name"`
	Properties       map[string]any `json:"properties,omitempty"`
}

// ExtractedGraph is the flat graph the extraction collaborator returns
// for one chunk.
type ExtractedGraph struct {
	Nodes []ExtractedNode `json:"nodes"`
	Edges []ExtractedEdge `json:"edges"`
}

// GraphNode is the graph-store output form: one id plus the full
// property map, ready for an add_nodes call.
type GraphNode struct {
	ID         uuid.UUID      `json:"id"`
	Properties map[string]any `json:"properties"`
}

// DataPoint is the vector-store output form: the payload is indexed
// under the named embed field so every entity is embedding-searchable
// by its display name.
type DataPoint struct {
	ID         uuid.UUID      `json:"id"`
	Payload    map[string]any `json:"payload"`
	EmbedField string         `json:"embed_field"`
}

// Now returns the UTC timestamp stamped onto edges at resolve time.
func Now() time.Time {
	return time.Now().UTC()
}
