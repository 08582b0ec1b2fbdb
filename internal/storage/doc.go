// Package storage provides the disks images are read from and written to.
//
// A Disk is addressed with storage-relative, forward-slash paths. Three
// drivers exist: LocalDisk (a directory), MemoryDisk (tests and dry runs)
// and S3Disk (any S3-compatible object store via minio-go).
//
// All disks are safe for concurrent use; the generation pipeline writes
// from several workers at once.
package storage
