package uartx

var instances []*UART

// register records an enabled instance and binds its receive vector.
func register(u *UART) {
	instances = append(instances, u)
	setHandler(u.Interrupt.Vector, u.handleInterrupt)
}

// Instances returns the UARTs compiled into this build, in module order.
func Instances() []*UART {
	return instances
}

// Lookup returns the instance called name, or nil if it is not compiled in.
func Lookup(name string) *UART {
	for _, u := range instances {
		if u.name == name {
			return u
		}
	}
	return nil
}
