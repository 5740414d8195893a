// Package runner orchestrates one query's conversation with the model:
// system prompt assembly, bounded tool-use rounds with sequential tool
// execution, and final answer extraction.
//
// Invariants:
//   - at most maxToolRounds tool rounds per query; the loop is a bounded
//     iteration, never open-ended
//   - tool definitions are identical on every model call of a query
//   - tool failures degrade to error tool results; only model transport
//     failures propagate
package runner
