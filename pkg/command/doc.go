// Package command resolves command configuration into executable commands
// and lays them out in cliques.
//
// A Registry turns a Config into an immutable Command once, merging display
// defaults from the command, its clique, the clique group and the global
// defaults. Handlers are built by kind through Factories, executability
// rules are looked up by name and combined with And, and the security
// object provider is looked up through a secobject.Registry.
//
// Cliques are declared in a Catalog, either standalone or inside a
// CliqueGroup. The toolbar orders cliques by declaration, while the button
// bar reverses the group order so important groups render last:
//
//	cat := command.NewCatalog()
//	_ = cat.AddGroup(command.CliqueGroup{
//		Name:    "edit",
//		Cliques: []command.Clique{{Name: "create"}, {Name: "save"}},
//	})
//
//	reg := command.NewRegistry(cat)
//	save, err := reg.Register(command.Config{
//		ID:      "save",
//		Kind:    command.KindNoop,
//		Group:   "write",
//		Clique:  "save",
//		Confirm: true,
//	})
//
// Invocations produce a Result tagged success, failure or suspended.
// Suspended results carry a Token that the execution engine persists and
// resumes later.
package command
