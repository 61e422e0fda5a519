// Package machine derives a stable, anonymous identifier for the host.
package machine

import (
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"cpdetect/logger"
)

// Info holds the host facts the identifier is derived from.
type Info struct {
	Platform    string
	Release     string
	TotalMemory uint64
	CPUModels   []string
}

// Compute hashes info into the hex identifier. The field order is fixed.
func Compute(info Info) string {
	parts := make([]string, 0, 3+len(info.CPUModels))
	parts = append(parts, info.Platform, info.Release, strconv.FormatUint(info.TotalMemory, 10))
	parts = append(parts, info.CPUModels...)

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// ID returns the identifier for this host, computed on first use.
var ID = sync.OnceValue(func() string {
	info, err := Collect()
	if err != nil {
		logger.Warn("machine info incomplete: %v", err)
	}
	return Compute(info)
})

// Collect gathers Info from the running system. On error the returned Info
// still carries every fact that could be read.
func Collect() (Info, error) {
	info := Info{Platform: runtime.GOOS}

	release, err := kernelRelease()
	if err != nil {
		return withFallbackCPUs(info), err
	}
	info.Release = release

	mem, err := totalMemory()
	if err != nil {
		return withFallbackCPUs(info), err
	}
	info.TotalMemory = mem

	models, err := cpuModels()
	if err != nil || len(models) == 0 {
		return withFallbackCPUs(info), err
	}
	info.CPUModels = models
	return info, nil
}

func withFallbackCPUs(info Info) Info {
	if len(info.CPUModels) > 0 {
		return info
	}
	info.CPUModels = make([]string, runtime.NumCPU())
	for i := range info.CPUModels {
		info.CPUModels[i] = runtime.GOARCH
	}
	return info
}

// cString converts a NUL-terminated byte array to a string.
func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
