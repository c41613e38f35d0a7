package httpserver

import "time"

const (
	// defaultPort applies when a server is constructed with an empty port.
	defaultPort = "8080"

	// Status and metrics responses are small; a slow client is a stuck one.
	readTimeout       = 3 * time.Second
	readHeaderTimeout = 3 * time.Second
	writeTimeout      = 5 * time.Second
	idleTimeout       = 30 * time.Second
	maxHeaderBytes    = 1 << 12 // 4kb
)
