// Package ontology validates and canonicalizes free-text entity and
// type names against a preloaded RDF/OWL ontology, and extracts the
// subgraph of facts reachable from a matched term.
//
// The ontology is optional: a resolver built with zero sources always
// misses, and the ingestion pipeline runs unchanged without it.
package ontology

import (
	"fmt"
	"io"
	"sync"

	"trellis/pkg/identity"
)

// Category partitions ontology terms for lookup.
type Category string

const (
	CategoryClasses     Category = "classes"
	CategoryIndividuals Category = "individuals"
)

const relationIsA = "is_a"

// State tracks the resolver lifecycle. The lookup table is read-only
// once Ready and safe for concurrent readers.
type State int

const (
	StateUninitialized State = iota
	StateLookupBuilt
	StateReady
)

// Term is one named ontology concept.
type Term struct {
	IRI      string
	Label    string
	Category Category
}

// Name returns the display name of the term: its label, or the IRI
// fragment when the source carried no rdfs:label.
func (t *Term) Name() string {
	if t.Label != "" {
		return t.Label
	}
	return fragmentOf(t.IRI)
}

// Relation is one directed typed relation between two terms.
type Relation struct {
	Source *Term
	Name   string
	Target *Term
}

// Source is one RDF/XML input to the resolver.
type Source struct {
	Name   string
	Reader io.Reader
}

// Resolver loads ontology sources into an in-memory graph and answers
// fuzzy name lookups and subgraph extractions against it.
type Resolver struct {
	mu       sync.RWMutex
	state    State
	strategy MatchingStrategy

	terms     map[string]*Term     // by IRI
	relations map[string][]edgeRef // outgoing, by source IRI
	inbound   map[string][]edgeRef // incoming, by target IRI

	lookup map[Category]map[string]*Term // normalized name -> term
}

type edgeRef struct {
	name   string
	target string // IRI
}

// NewResolverParams configures a Resolver. A nil Strategy selects the
// default similarity-cutoff strategy.
type NewResolverParams struct {
	Sources  []Source
	Strategy MatchingStrategy
}

// NewResolver parses all sources and builds the lookup table. A
// malformed source fails the whole construction with an
// InitializationError; it is never silently dropped. Zero sources is
// legal and yields a resolver that always misses.
func NewResolver(params NewResolverParams) (*Resolver, error) {
	strategy := params.Strategy
	if strategy == nil {
		strategy = RatioStrategy{Cutoff: DefaultCutoff}
	}

	r := &Resolver{
		strategy:  strategy,
		terms:     make(map[string]*Term),
		relations: make(map[string][]edgeRef),
		inbound:   make(map[string][]edgeRef),
	}

	for _, src := range params.Sources {
		if err := r.parseSource(src.Name, src.Reader); err != nil {
			return nil, &InitializationError{Err: err}
		}
	}
	r.state = StateLookupBuilt

	if err := r.BuildLookup(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Resolver) ensureTerm(iri string, category Category) *Term {
	if term, ok := r.terms[iri]; ok {
		// A term first seen as a relation target may later turn out
		// to be a class declaration; the declaration wins.
		if category == CategoryClasses {
			term.Category = CategoryClasses
		}
		return term
	}
	term := &Term{IRI: iri, Category: category}
	r.terms[iri] = term
	return term
}

func (r *Resolver) addRelation(source *Term, name string, target *Term) {
	ref := edgeRef{name: identity.Normalize(name), target: target.IRI}
	r.relations[source.IRI] = append(r.relations[source.IRI], ref)
	r.inbound[target.IRI] = append(r.inbound[target.IRI], edgeRef{name: ref.name, target: source.IRI})
}

// BuildLookup partitions terms into category lookup maps keyed by
// normalized name. Duplicate normalized names inside one category fail
// loudly rather than shadowing each other.
func (r *Resolver) BuildLookup() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lookup := map[Category]map[string]*Term{
		CategoryClasses:     make(map[string]*Term),
		CategoryIndividuals: make(map[string]*Term),
	}

	for _, term := range r.terms {
		key := identity.Normalize(term.Name())
		if key == "" {
			return &InitializationError{Err: fmt.Errorf("ontology term %q has an empty name", term.IRI)}
		}
		bucket := lookup[term.Category]
		if existing, ok := bucket[key]; ok && existing.IRI != term.IRI {
			return &InitializationError{
				Err: fmt.Errorf("ontology terms %q and %q collide on key %q", existing.IRI, term.IRI, key),
			}
		}
		bucket[key] = term
	}

	r.lookup = lookup
	r.state = StateReady
	return nil
}

// RefreshLookup rebuilds the lookup table from the loaded terms. It
// takes the write lock and must not run concurrently with lookups.
func (r *Resolver) RefreshLookup() error {
	return r.BuildLookup()
}

// State reports the resolver lifecycle state.
func (r *Resolver) CurrentState() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// FindClosestMatch resolves a free-text name to the closest known term
// in a category. An exact normalized match short-circuits; otherwise
// the configured MatchingStrategy decides. A clean miss returns
// (nil, nil); only misuse (unknown category, unbuilt lookup) is an
// error, reported as a FindClosestMatchError.
func (r *Resolver) FindClosestMatch(name string, category Category) (*Term, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state != StateReady {
		return nil, &FindClosestMatchError{Name: name, Category: category, Err: fmt.Errorf("lookup not built")}
	}
	bucket, ok := r.lookup[category]
	if !ok {
		return nil, &FindClosestMatchError{Name: name, Category: category, Err: fmt.Errorf("unknown category")}
	}
	if len(bucket) == 0 {
		return nil, nil
	}

	key := identity.Normalize(name)
	if term, ok := bucket[key]; ok {
		return term, nil
	}

	candidates := make([]string, 0, len(bucket))
	for candidate := range bucket {
		candidates = append(candidates, candidate)
	}
	match, ok := r.strategy.FindMatch(key, candidates)
	if !ok {
		return nil, nil
	}
	return bucket[match], nil
}
