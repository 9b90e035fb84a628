// Package storage handles the files igcancel keeps between runs: the data
// directory, atomic writes for the progress record, and the plain-text
// identifier lists (one identifier per line) used for the failed list and
// for --usernames-file input.
//
// Writes go to a temporary file in the target directory, are synced, and are
// then renamed over the destination, so a reader never observes a partially
// written file even if the process is killed mid-write.
//
// Usage:
//
//	dir, err := storage.DataDir()
//	if err != nil {
//	    return err
//	}
//	err = storage.WriteLines(filepath.Join(dir, "failed_cancellations.txt"), failed)
package storage
