// Package dialog provides the commands that open and close dialogs.
//
// A component owning dialogs implements Host, usually by embedding a Set.
// Register adds two command kinds to a command.Factories registry:
// KindOpen opens the dialog named by the "dialog" parameter and is hidden
// on components that do not own it; KindClose closes the dialog the
// invoked component belongs to, never asks for confirmation and marks the
// result with the close-dialog flag.
package dialog
