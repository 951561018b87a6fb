package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskInfo describes disk usage of a mount point.
type DiskInfo struct {
	Total       uint64
	Free        uint64
	Used        uint64
	UsedPercent float64
}

// CheckDiskSpace reports whether path has room for requiredBytes while
// keeping at least minFreePercent of the volume free afterwards.
func CheckDiskSpace(path string, requiredBytes int64, minFreePercent float64) (bool, *DiskInfo, error) {
	if minFreePercent == 0 {
		minFreePercent = 10.0
	}

	info, err := GetDiskInfo(path)
	if err != nil {
		return false, nil, err
	}

	if int64(info.Free) < requiredBytes {
		return false, info, nil
	}

	remainingFree := int64(info.Free) - requiredBytes
	remainingPercent := float64(remainingFree) / float64(info.Total) * 100
	if remainingPercent < minFreePercent {
		return false, info, nil
	}

	return true, info, nil
}

// FormatBytes renders a byte count in human-readable form.
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// GetDirectorySize sums the size of all regular files under path.
func GetDirectorySize(path string) (int64, error) {
	var totalSize int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	return totalSize, err
}

// DiskSpaceError reports a failed disk space check.
type DiskSpaceError struct {
	Required  int64
	Available uint64
	Message   string
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("%s: required %s, available %s",
		e.Message,
		FormatBytes(uint64(e.Required)),
		FormatBytes(e.Available),
	)
}

// NewDiskSpaceError builds a DiskSpaceError.
func NewDiskSpaceError(required int64, available uint64) *DiskSpaceError {
	return &DiskSpaceError{
		Required:  required,
		Available: available,
		Message:   "insufficient disk space",
	}
}
