//go:build !linux

package monitor

import "errors"

var errUnsupported = errors.New("resident memory sampling requires linux")

func residentTreeMB(pid int) (float64, error) {
	_ = pid
	return 0, errUnsupported
}

func residentSelfMB() (float64, error) {
	return 0, errUnsupported
}
