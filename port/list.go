package port

// Device describes one serial device visible on the host.
type Device struct {
	Path        string `json:"port"`
	Description string `json:"description"`
}

// List enumerates the serial devices currently visible on the host. A host
// without any serial devices yields an empty slice, not an error. Listing
// requires no open Session.
func List() ([]Device, error) {
	return listDevices()
}
