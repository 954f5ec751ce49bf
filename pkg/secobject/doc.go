// Package secobject translates a command's target model into the object its
// permission check applies to.
//
// A command editing a row may need to be authorized against the document
// containing it. Providers express that indirection as pure functions of
// the checker, the model and the command group. Null never restricts.
package secobject
