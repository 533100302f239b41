// Package types defines the wire types shared by the agent and the server.
// Reports travel as JSON over HTTP; these structs are the canonical shape.
//
// NewReport and ErrorReport map engine results onto a Report.
package types
