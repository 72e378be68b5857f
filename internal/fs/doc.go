// Package fs abstracts the file system operations used by the archive
// builder and the sprite cache, so tests can inject write, sync and
// rename failures without touching a real disk fault.
package fs
