//go:build linux

package port

import (
	"github.com/hedhyw/Go-Serial-Detector/pkg/v1/serialdet"
)

func listDevices() ([]Device, error) {
	devices, err := serialdet.List()
	if err != nil {
		return nil, err
	}

	result := make([]Device, 0, len(devices))
	for _, device := range devices {
		result = append(result, Device{
			Path:        device.Path(),
			Description: device.Description(),
		})
	}
	return result, nil
}
