//go:build !windows

package ops

import (
	"context"
	"fmt"
)

// osExecutor on non-Windows platforms rejects setting and service
// operations. Cache purges still work since they only need the
// filesystem.
type osExecutor struct{}

// NewOS returns the Executor backed by the running operating system.
func NewOS() Executor { return &osExecutor{} }

func (x *osExecutor) ReadSetting(_ context.Context, key Key) (Value, error) {
	return Value{}, fmt.Errorf("read %s: %w", key, ErrUnsupported)
}

func (x *osExecutor) WriteSetting(_ context.Context, key Key, _ Value) error {
	return fmt.Errorf("write %s: %w", key, ErrUnsupported)
}

func (x *osExecutor) Subkeys(_ context.Context, key Key) ([]string, error) {
	return nil, fmt.Errorf("subkeys %s: %w", key, ErrUnsupported)
}

func (x *osExecutor) ReadService(_ context.Context, name string) (ServiceState, error) {
	return ServiceState{}, fmt.Errorf("service %s: %w", name, ErrUnsupported)
}

func (x *osExecutor) SetService(_ context.Context, name string, _ ServiceState) error {
	return fmt.Errorf("service %s: %w", name, ErrUnsupported)
}

func (x *osExecutor) ClearCache(ctx context.Context, path string) error {
	return clearCacheDir(ctx, path)
}
