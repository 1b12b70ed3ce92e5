// Package mau assembles the match-action stages of a pipeline.
//
// A Pipeline is loaded from a value tree holding one block per stage and
// gress, each declaring tables. Compile then runs four passes over every
// table in declaration order:
//
//	pass0   match tables take what their attached tables ask of them
//	pass1   per-stage resources are claimed and checked locally
//	pass2   references between tables are resolved
//	pass3   checks that need the whole pipeline
//
// Problems in the input are reported through package diag and the passes
// keep going, so one run reports as much as it can. Once Compile succeeds
// the pipeline can be written as a .bfa listing, as context.json, or as
// register settings; none of these change the pipeline.
//
package mau
