// Package resource defines the declarative resource model: logical nodes,
// attribute expressions, and the declaration set they are parsed from.
//
// A declaration set is the orchestrator's sole input. Each node carries a
// unique logical name, a resource kind selecting the driver that handles it,
// and a mapping from attribute name to expression. Expressions are a closed
// tagged union: literals, lists, maps, references to another resource's
// outputs, variable references, templates, and a small set of pure functions.
package resource
