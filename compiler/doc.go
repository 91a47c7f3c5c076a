/*

Process of compilation

Three-address IR text ->
	parse ->
Module IR (ir) ->
	opt (fold, tail calls, then simplify, cse, copy propagation, dce to a fixed point) ->
Optimized IR ->
	regalloc.Prepare, per function ->
	back (walks blocks, asks the allocator for every operand) ->
Assembly Text

Analyses used along the way:

	cfg: predecessor and successor graph of a function's blocks
	df:  liveness, available expressions, constant propagation

*/
package compiler
