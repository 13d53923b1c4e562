// Package inputs reads and writes input manifests: YAML or JSON documents
// listing the (owner, role, schema) tuples of one analysis run.
//
// Example:
//
//	version: "1"
//	service: petstore
//	inputs:
//	  - owner: {kind: endpoint, method: GET, path: /pets}
//	    role: response
//	    schema:
//	      type: array
//	      items: {$ref: "#/components/schemas/Pet"}
//	  - owner: {kind: model, name: Pet}
//	    role: component
//	    schema_file: schemas/pet.json
package inputs
