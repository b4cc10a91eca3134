// Package app wires the host around the directive engine: it builds the
// logger, the scripting surface, the bound resource and its bootstrap
// builder, renders one template text and prints the result.
package app
