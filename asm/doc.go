// This file is part of basm-dev - https://github.com/Juicywoowowow/basm-dev
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package asm provides a line-oriented parser and disassembler for BASM
// source.
//
// Grammar (informal):
//
//	module  ::= ( "module" IDENT | "memory" ... | data | func | export | comment | blank )*
//	data    ::= "data" "$" IDENT "{" directive* "}"
//	directive ::= ("write.len" INT | "write.i64" INT | "write.bytes" STRING)
//	func    ::= "func" "$" IDENT "(" params? ")" "{" body* "}"
//	body    ::= label | instruction | comment
//	label   ::= "." IDENT ":"
//	instr   ::= OP [ operand ("," operand)* ]
//	export  ::= "export" "$" IDENT "as" STRING
//
// Comments start with ';' and run to end of line. Memory operands use the
// "[base+off]" form; registers are "r0".."r255". See vm.ParseOperand for the
// full operand grammar.
package asm
