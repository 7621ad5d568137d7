// Package lang implements the property-sheet configuration language: a
// tokenizer, a selector type, the cascading tree of objects and properties,
// and a parser that builds that tree from source text.
//
// # Values are deferred
//
// The parser never evaluates anything. Every assignment is recorded as a
// [Change] on a [PropertyNode] and replayed later against a [ValueContext],
// which resolves ${...} macros, named collections and embedded
// instructions. The view package provides the standard context.
//
// # Grammar
//
// Informal EBNF:
//
//	Sheet       → Statement* EOF
//	Statement   → Import | Alias | Metadata | Matrix | Block | Rule
//	Import      → '@import' (String | BareName) Term
//	Alias       → '@alias' Identifier '=' Selector Term
//	Metadata    → '#' Name ('=' RValue Term | '{' (Name ('=' RValue | '{' … '}') Term)* '}')
//	Matrix      → '(' Identifier (',' Identifier)* ')' '=>' (Statement | '{' Statement* '}' | RValue Term)
//	Block       → '{' Statement* '}'
//	Rule        → Selector ( '{' Statement* '}'
//	                       | ':'  RValue (',' RValue)* Term
//	                       | '+=' RValue (',' RValue)* Term
//	                       | '='  RValue Term
//	                       | ':=' ( '{' Statement* '}' | Instruction Term | RValue Term )
//	                       | Instruction Term )
//	Selector    → '::'? Name ('[' Parameter ']' AfterParameter?)?
//	RValue      → Operand ('=>' Operand)*
//	Operand     → '{' (RValue | '#' Name '=' RValue) (',' …)* '}' | Instruction | Literal
//	Term        → ';' | ',' | <before '}'> | <EOF at top level>
//
// # Example
//
//	@import "common.props";
//	@alias win = platform[windows];
//
//	#version = 2.0.1;
//
//	win {
//	    defines += "WIN32";
//	}
//
//	sources : "main.c", "util.c";
//	objects = ${sources} => "${each}.o";
//
//	(platforms, configurations) => build {
//	    dir = "out/${platforms}/${configurations}";
//	}
//
// # Cascading
//
// A sheet and the sheets it imports form a cascade: the importing sheet's
// own rules take precedence, then each import in declaration order,
// depth-first. Re-declaring a selector merges into the existing node; each
// assignment adds a change rather than replacing the node.
//
// # Errors
//
// Grammar violations abort the parse with a [*ParseError]; there is no
// recovery and no partial tree. Non-fatal conditions (a bare import that
// cannot be found, an alias that refers to its own name) are reported as
// [Diagnostic] warnings.
package lang
