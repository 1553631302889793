package util

import (
	"net"
	"os"
)

// GetLocalIP returns the address other hosts should use to reach this replica.
// POD_IP, HOST_IP and SERVICE_HOST win over interface discovery.
func GetLocalIP() string {
	for _, key := range []string{"POD_IP", "HOST_IP", "SERVICE_HOST"} {
		if ip := os.Getenv(key); ip != "" {
			return ip
		}
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}
