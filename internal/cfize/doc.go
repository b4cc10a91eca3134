// Package cfize implements directive interpolation: template text carrying
// embedded snippets such as "C{join(",", ["a", "b"])}" is split into literal
// and directive tokens, each directive is evaluated as an HCL expression
// against a fixed function registry, and the pieces are reassembled with the
// scripting surface's join primitive.
//
// Directives are never executed as host code. The only capabilities a
// snippet can reach are the functions and variables registered on the
// Engine.
package cfize
