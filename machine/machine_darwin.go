package machine

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

func kernelRelease() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return cString(uts.Release[:]), nil
}

func totalMemory() (uint64, error) {
	mem, err := unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	return mem, nil
}

func cpuModels() ([]string, error) {
	brand, err := unix.Sysctl("machdep.cpu.brand_string")
	if err != nil {
		return nil, fmt.Errorf("sysctl machdep.cpu.brand_string: %w", err)
	}
	models := make([]string, runtime.NumCPU())
	for i := range models {
		models[i] = brand
	}
	return models, nil
}
