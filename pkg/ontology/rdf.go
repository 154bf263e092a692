package ontology

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Minimal RDF/XML reader: enough of the OWL surface to recover named
// classes, named individuals, subclass axioms and object-property
// assertions. Anything else in the file is ignored.

type rdfResource struct {
	Resource string `xml:"resource,attr"`
}

type rdfTypedNode struct {
	XMLName    xml.Name
	About      string        `xml:"about,attr"`
	ID         string        `xml:"ID,attr"`
	Label      string        `xml:"label"`
	SubClassOf []rdfResource `xml:"subClassOf"`
	Types      []rdfResource `xml:"type"`
	Props      []rdfProperty `xml:",any"`
}

type rdfProperty struct {
	XMLName  xml.Name
	Resource string `xml:"resource,attr"`
}

type rdfDocument struct {
	XMLName xml.Name       `xml:"RDF"`
	Nodes   []rdfTypedNode `xml:",any"`
}

const (
	owlClass           = "Class"
	owlNamedIndividual = "NamedIndividual"
)

// parseSource decodes one RDF/XML document into terms and relations,
// appending into the resolver's raw graph. Malformed XML or a document
// without an rdf:RDF root is an error; the whole source is rejected
// rather than partially loaded.
func (r *Resolver) parseSource(name string, src io.Reader) error {
	var doc rdfDocument
	dec := xml.NewDecoder(src)
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parse ontology source %q: %w", name, err)
	}
	if doc.XMLName.Local != "RDF" {
		return fmt.Errorf("ontology source %q: unexpected root element %q", name, doc.XMLName.Local)
	}

	for _, node := range doc.Nodes {
		iri := node.About
		if iri == "" {
			iri = node.ID
		}
		if iri == "" {
			continue
		}

		switch node.XMLName.Local {
		case owlClass:
			term := r.ensureTerm(iri, CategoryClasses)
			if node.Label != "" {
				term.Label = strings.TrimSpace(node.Label)
			}
			for _, sup := range node.SubClassOf {
				if sup.Resource == "" {
					continue
				}
				parent := r.ensureTerm(sup.Resource, CategoryClasses)
				r.addRelation(term, relationIsA, parent)
			}
			r.collectObjectProperties(term, node.Props)
		case owlNamedIndividual:
			term := r.ensureTerm(iri, CategoryIndividuals)
			if node.Label != "" {
				term.Label = strings.TrimSpace(node.Label)
			}
			for _, typ := range node.Types {
				if typ.Resource == "" || isOWLBuiltin(typ.Resource) {
					continue
				}
				class := r.ensureTerm(typ.Resource, CategoryClasses)
				r.addRelation(term, relationIsA, class)
			}
			r.collectObjectProperties(term, node.Props)
		}
	}

	return nil
}

func (r *Resolver) collectObjectProperties(term *Term, props []rdfProperty) {
	for _, prop := range props {
		if prop.Resource == "" {
			continue
		}
		name := prop.XMLName.Local
		if name == "" || name == "subClassOf" || name == "type" || name == "label" {
			continue
		}
		target := r.ensureTerm(prop.Resource, CategoryIndividuals)
		r.addRelation(term, name, target)
	}
}

func isOWLBuiltin(iri string) bool {
	return strings.Contains(iri, "://www.w3.org/2002/07/owl")
}

// fragmentOf recovers a display name from an IRI when no rdfs:label is
// present: the fragment after '#', or the last path segment.
func fragmentOf(iri string) string {
	if idx := strings.LastIndex(iri, "#"); idx >= 0 && idx < len(iri)-1 {
		return iri[idx+1:]
	}
	if idx := strings.LastIndex(iri, "/"); idx >= 0 && idx < len(iri)-1 {
		return iri[idx+1:]
	}
	return iri
}
