package netutil

import "net"

// LANAddr returns the first non-loopback IPv4 address outside the CGNAT
// range used by overlay VPNs.
func LANAddr() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ip := ipOf(addr); usableLAN(ip) {
				return ip.String()
			}
		}
	}
	return ""
}

func ipOf(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}

func usableLAN(ip net.IP) bool {
	if ip == nil || ip.IsLoopback() || ip.To4() == nil {
		return false
	}
	return !isCGNAT(ip)
}

// isCGNAT reports whether ip is in 100.64.0.0/10.
func isCGNAT(ip net.IP) bool {
	v4 := ip.To4()
	return v4 != nil && v4[0] == 100 && v4[1] >= 64 && v4[1] <= 127
}
