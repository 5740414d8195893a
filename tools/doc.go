// Package tools defines the retrieval tool contracts and implementations.
//
// Includes:
//   - Tool: name, description, JSON input schema, Execute handler.
//   - SourceTracker: optional per-query source attribution side channel.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Registry: name-keyed dispatch, ordered definitions, source aggregation.
//   - Retrieval tools: search_course_content, get_course_outline.
package tools
