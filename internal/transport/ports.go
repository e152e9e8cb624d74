package transport

import (
	"fmt"

	"go.bug.st/serial/enumerator"
)

// ListPorts returns the discovery listing for all detected serial
// ports. Consumed only by the CLI listing; the session never calls it.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumerate, err)
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Device:      d.Name,
			Description: d.Product,
			VID:         d.VID,
			PID:         d.PID,
			IsUSB:       d.IsUSB,
		})
	}
	return out, nil
}
