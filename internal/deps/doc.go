// Package deps locates the external executables tempo shells out to and
// reports their availability for the doctor command.
package deps
