package ai

const ExtractGraphPrompt = `
# Task Context
You are tasked with extracting a **structured knowledge graph** from the provided text. The graph consists of nodes (entities) and edges (relationships). Capture **all entities and relationships explicitly present in the text**, without omission.

# Background Data
- **Entity_types:** [%s]

# Detailed Task Description & Rules

## Node Extraction
1. Identify all entities of the specified types [%s].
2. For each entity, extract:
   - **id:** A short identifier unique within this response (e.g., "n1", "n2"). Edges reference these ids.
   - **name:** The display name of the entity as mentioned in the text.
   - **type:** One of the provided types [%s].
   - **description:** A comprehensive description of all attributes, roles, activities and other explicit details in the text. Do **not** omit explicit information.

## Edge Extraction
1. From the identified nodes, determine all clear relationships between pairs of nodes.
2. For each relationship, extract:
   - **source_node_id:** id of the source node, as assigned above.
   - **target_node_id:** id of the target node, as assigned above.
   - **relationship_name:** a short snake_case verb phrase naming the relationship (e.g., "works_for", "located_in").
   - **weight:** a numeric score (0.0-1.0) indicating how strongly the text supports the relationship.
3. Never produce an edge whose source or target id was not listed in the nodes.
4. If the text contains no relationships, return an **empty array** for "edges".

# Output
Respond only with the structured JSON object. Do not add commentary.
`
