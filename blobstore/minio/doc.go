// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is an S3-compatible object storage system. This package uses the
// official MinIO Go client and also works with other S3-compatible systems
// like Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	store, err := minio.Dial(ctx, "localhost:9000", "minioadmin", "minioadmin",
//	    "my-bucket", "recgo/", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = persistence.SaveModel(ctx, store, "models/pmf", m)
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
