package models

// NetworkInterface holds per-interface identity and cumulative counters
type NetworkInterface struct {
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	IsConnected     bool     `json:"is_connected"`
	BytesReceived   uint64   `json:"bytes_received"`
	BytesSent       uint64   `json:"bytes_sent"`
	PacketsReceived uint64   `json:"packets_received"`
	PacketsSent     uint64   `json:"packets_sent"`
	Addresses       []string `json:"addresses,omitempty"`
	MACAddress      string   `json:"mac_address,omitempty"`
	SpeedMbps       uint32   `json:"speed_mbps"`
}

// NetworkStats aggregates every interface seen in one tick
type NetworkStats struct {
	TotalBytesReceived uint64             `json:"total_bytes_received"`
	TotalBytesSent     uint64             `json:"total_bytes_sent"`
	ActiveConnections  uint32             `json:"active_connections"`
	PrimaryInterface   string             `json:"primary_interface"`
	Interfaces         []NetworkInterface `json:"interfaces"`
}

// Aggregate recomputes the cumulative totals from the interface list
func (n *NetworkStats) Aggregate() {
	var recv, sent uint64
	for _, iface := range n.Interfaces {
		recv += iface.BytesReceived
		sent += iface.BytesSent
	}
	n.TotalBytesReceived = recv
	n.TotalBytesSent = sent
}

// Clone deep-copies the interface list
func (n NetworkStats) Clone() NetworkStats {
	c := n
	if n.Interfaces != nil {
		c.Interfaces = make([]NetworkInterface, len(n.Interfaces))
		for i, iface := range n.Interfaces {
			if iface.Addresses != nil {
				iface.Addresses = append([]string(nil), iface.Addresses...)
			}
			c.Interfaces[i] = iface
		}
	}
	return c
}

// NetworkReading is one network sample
type NetworkReading struct {
	UsagePercent        float64      `json:"usage_percent"`
	UploadBytesPerSec   uint64       `json:"upload_bytes_per_sec"`
	DownloadBytesPerSec uint64       `json:"download_bytes_per_sec"`
	PrimaryInterface    string       `json:"primary_interface"`
	Stats               NetworkStats `json:"stats"`
}
