// Package catalog builds a deployment from one YAML document: custom
// command groups, the type graph, cliques, checker components and proxies,
// checker trees and the commands themselves.
//
// Load and Parse expand environment variables before decoding and reject
// unknown fields. Build fails on malformed entries and unknown references.
// Softer problems such as clique clashes or undeclared cliques are logged
// and kept in Problems so they can be reported at boot.
//
//	cat, err := catalog.Load(ctx, "catalog.yaml",
//		catalog.WithPermissions(resolver),
//		catalog.WithLogger(log),
//	)
//	sessions := catalog.NewSessions(cat, 0, 0)
//	engine := execution.NewEngine(cat.Commands(), sessions)
//
// A Workspace holds the live components of one session. Checkers are
// shared by all workspaces while models, selections and open dialogs are
// per workspace. Sessions resolves components from the workspace selected
// by execution.WithScope, so a resumed invocation sees the same instances
// as the one that suspended.
package catalog
