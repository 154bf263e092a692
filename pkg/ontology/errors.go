package ontology

import "fmt"

// InitializationError reports a failure to load or index ontology
// sources. It aborts ontology-assisted canonicalization for the run;
// callers fall back to running without an ontology.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("ontology initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// FindClosestMatchError reports a failed lookup attempt, as opposed to
// a clean miss (a miss returns a nil term and no error).
type FindClosestMatchError struct {
	Name     string
	Category Category
	Err      error
}

func (e *FindClosestMatchError) Error() string {
	return fmt.Sprintf("find closest match %q in %q: %v", e.Name, e.Category, e.Err)
}

func (e *FindClosestMatchError) Unwrap() error { return e.Err }

// GetSubgraphError reports a failed subgraph extraction for one term.
// Callers must catch it per entity and continue with the siblings.
type GetSubgraphError struct {
	Name string
	Err  error
}

func (e *GetSubgraphError) Error() string {
	return fmt.Sprintf("subgraph extraction for %q: %v", e.Name, e.Err)
}

func (e *GetSubgraphError) Unwrap() error { return e.Err }
