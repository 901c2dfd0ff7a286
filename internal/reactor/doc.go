// Package reactor drives statement sources through the model processing
// phases. Sources are replayed once per phase into a tree of statement
// contexts, inference actions fire as their prerequisites resolve, and
// the declared and effective models are built after the last phase.
// Statement semantics are supplied per keyword through Support.
package reactor
