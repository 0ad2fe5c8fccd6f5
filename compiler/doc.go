/*
Package compiler runs the whole pipeline.

	IR document (yaml) ->
		irfile ->
	Function trees (ir) ->
		validate ->
		opt: fold, propagate, eliminate dead, until nothing changes ->
	Optimized trees (ir) ->
		back ->
	Assembly text (x86-64, AT&T)
*/
package compiler
