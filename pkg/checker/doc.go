// Package checker resolves the authoritative checker components for objects.
//
// Checkers form a tree per deployed UI root: each checker names its children
// (sub-checkers and dialogs) and declares the (type, command group) pairs it
// is the default for. Checkers refer to each other by name only, and a Tree
// resolves names, so delegation cycles through proxies are walked safely.
//
// A Resolver answers CheckersFor by walking the candidate types of the
// subject, most specific first, and returning the default checkers of the
// first type that has any. Results are cached per root and type:
//
//	types := checker.NewTypeGraph()
//	types.Declare("invoice", "document")
//
//	tree, err := checker.NewTree("main", "root", []checker.Checker{
//		checker.NewComponent("root", perms, checker.WithChildren("documents")),
//		checker.NewComponent("documents", perms, checker.DefaultFor("document")),
//	})
//	if err != nil {
//		return err
//	}
//
//	r := checker.NewResolver(types)
//	r.Install(tree)
//
//	ctx = checker.WithTree(ctx, "main")
//	c, ok := r.DefaultChecker(ctx, invoice, rbac.Write)
//
// Without a tree selected in the context, lookups use the StaticRegistry,
// merging the checkers registered for every root.
package checker
