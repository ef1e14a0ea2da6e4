package blob

import (
	"context"
	"fmt"
)

// Config parameterizes driver selection.
type Config struct {
	Driver Driver
	FSRoot string // fs driver root directory
	S3     S3Config
}

// Open constructs the configured blob store. An empty driver defaults to the
// filesystem.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
