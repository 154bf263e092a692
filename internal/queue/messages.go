package queue

// IngestDocumentMsg asks the worker to chunk a stored document, extract
// its graph, and merge the result into the named graph. OntologyPrefix
// is optional; when set, every RDF/XML object under the prefix is loaded
// into the canonicalization resolver.
type IngestDocumentMsg struct {
	GraphID        string `json:"graph_id"`
	DocumentID     string `json:"document_id"`
	ObjectKey      string `json:"object_key"`
	OntologyPrefix string `json:"ontology_prefix,omitempty"`
	MaxChunkTokens int    `json:"max_chunk_tokens,omitempty"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}

// DeleteGraphMsg asks the worker to drop everything persisted for a
// graph, including stored source objects under the graph prefix.
type DeleteGraphMsg struct {
	GraphID       string `json:"graph_id"`
	ObjectPrefix  string `json:"object_prefix,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
