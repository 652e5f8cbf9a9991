//go:build !linux

package port

import (
	"go.bug.st/serial/enumerator"
)

func listDevices() ([]Device, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	result := make([]Device, 0, len(ports))
	for _, p := range ports {
		description := p.Product
		if description == "" && p.IsUSB {
			description = "USB " + p.VID + ":" + p.PID
		}
		result = append(result, Device{
			Path:        p.Name,
			Description: description,
		})
	}
	return result, nil
}
