// Package sprite manages the on-disk sprite image cache: one file per
// species id, named deterministically, downloaded lazily or in bulk and
// reused across runs. Sprite presence is independent of the archive; a
// missing sprite is never a fatal condition.
package sprite
