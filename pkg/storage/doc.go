// Package storage turns scraped labels into safe path components and writes
// downloaded files below the mirror root.
//
// Sanitize is the single place where portal text becomes a file or directory
// name. Manager creates directories and streams files to disk:
//   - data is copied in fixed-size chunks into "<name>.part"
//   - the part file is renamed into place only after a complete copy
//   - a failed copy removes the part file
//   - two saves to the same path in one run get distinct names
//
// Usage:
//
//	manager, err := storage.NewManager("downloads", storage.DefaultChunkSize)
//	if err != nil {
//	    return err
//	}
//	path, n, err := manager.Save(ctx, resp.Body, dir, storage.Sanitize(label))
package storage
