package hubprov

// GATT identifiers of the provisioning service. These are fixed protocol
// constants; the controller app hardcodes the same set.
const (
	ServiceUUID     = "12345678-1234-5678-1234-56789abcdef0"
	ScratchCharUUID = "12345678-1234-5678-1234-56789abcdef1"
	WifiCharUUID    = "12345678-1234-5678-1234-56789abcdef2"
	InfoCharUUID    = "12345678-1234-5678-1234-56789abcdef3"
	AuthCharUUID    = "12345678-1234-5678-1234-56789abcdef4"
	StatusCharUUID  = "12345678-1234-5678-1234-56789abcdef5"
)
