// Package tinscript is the embeddable scripting language runtime: a
// lexer/parser/compiler pipeline producing bytecode Codeblocks, a
// stack-based VM executing them against a shared namespace/object/
// scheduler state, and the host-facing API (CreateContext, ExecScriptFile,
// ExecCommand, UpdateContext, RegisterFunction/RegisterClass/RegisterObject,
// ExecFunction/ObjExecMethod) that lets native code embed and drive it.
//
// A Context owns every piece of per-script-VM state: the symbol registry,
// operator dispatch table, interned-string table, object repository,
// codeblock store, VM, scheduler, and registration bridge. Hosts create one
// Context per independent script environment; nothing here is global.
package tinscript
