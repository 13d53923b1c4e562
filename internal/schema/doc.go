// Package schema flattens JSON-Schema-shaped request and response bodies
// into ordered field descriptors that can be compared across endpoints.
//
// Key types:
//   - FieldType / Role: closed enums for field types and schema roles
//   - FieldDescriptor: one flattened field with dotted path and shape metadata
//   - Signature: leaf name + type key used for cross-schema matching
//   - NormalizedSchema: the role-tagged field list owned by an endpoint or model
//
// Normalize never fails on incomplete schemas: absent types become
// TypeUnknown and empty bodies produce an empty field list. Only values that
// cannot be a schema at all yield a *NormalizationError.
package schema
