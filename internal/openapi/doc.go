// Package openapi imports OpenAPI 3.x documents as analysis inputs.
//
// Every operation contributes its request body schema and one response
// schema; every component schema becomes a component model. Referenced
// schemas are inlined, and a reference back into a schema that is already
// being inlined is replaced by a bare {"$ref": ...} node, which the
// normalizer treats as a field of unknown type.
package openapi
