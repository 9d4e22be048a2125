// Package textutil renders note fields for terminal output.
//
// Fields are HTML fragments. PlainText drops the markup, keeping sound tags
// verbatim so a listing still shows which audio a field references.
package textutil
