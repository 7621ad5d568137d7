// Package view resolves the values of a parsed property sheet.
//
// A [Context] answers the three kinds of dynamic reference a sheet may
// contain: ${name} macros, named collections iterated by matrices and
// lambdas, and embedded instructions. Macros are substituted repeatedly
// until the text stops changing, so a macro value may itself contain
// macros. Names no source knows are left in place unchanged.
//
// Macro names are answered, in order, by the registered responders, by the
// current permutation ("each", a tuple index such as "0", or a collection
// name, each optionally followed by a field path like "each.name"), and
// finally by the sheet itself when the context belongs to a [View].
//
// A [View] walks the cascade of a root sheet:
//
//	sheet, _ := lang.ParseFile(ctx, "build.props")
//	v := view.New(sheet, view.WithDefines(map[string]string{"arch": "x64"}))
//	out, _ := v.Get(ctx, "compiler.flags")
//
// Generated matrix entries are addressed by their "__<index>_<n>" selectors
// and bind the n'th combination of the matrix collections, first collection
// varying slowest.
//
// Embedded instructions are expr-lang expressions. Their environment holds
// the permutation bindings, a macro function, and a small set of host
// helpers listed by [BuiltinKeys].
package view
