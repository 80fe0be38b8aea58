// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("recgo/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = persistence.SaveModel(ctx, store, "models/pmf", m)
//
// # Features
//
//   - Multipart uploads for large snapshots
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
