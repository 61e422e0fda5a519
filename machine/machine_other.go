//go:build !linux && !darwin

package machine

import "errors"

var errUnsupported = errors.New("machine info not supported on this platform")

func kernelRelease() (string, error) { return "", errUnsupported }

func totalMemory() (uint64, error) { return 0, errUnsupported }

func cpuModels() ([]string, error) { return nil, errUnsupported }
