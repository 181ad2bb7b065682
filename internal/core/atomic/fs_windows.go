//go:build windows

package atomic

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// isSamePartition compares the volume serial numbers of src and dst.
func isSamePartition(src, dst string) (bool, error) {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return false, err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return false, err
	}

	srcVolume := filepath.VolumeName(srcAbs)
	dstVolume := filepath.VolumeName(dstAbs)
	if srcVolume == "" || dstVolume == "" {
		return false, fmt.Errorf("failed to determine volume name from file paths")
	}

	srcID, err := volumeSerial(srcVolume)
	if err != nil {
		return false, fmt.Errorf("failed to get source volume information: %w", err)
	}
	dstID, err := volumeSerial(dstVolume)
	if err != nil {
		return false, fmt.Errorf("failed to get destination volume information: %w", err)
	}

	return srcID == dstID, nil
}

func volumeSerial(volume string) (uint32, error) {
	root, err := windows.UTF16PtrFromString(volume + `\`)
	if err != nil {
		return 0, err
	}
	var serial uint32
	err = windows.GetVolumeInformation(root, nil, 0, &serial, nil, nil, nil, 0)
	return serial, err
}
