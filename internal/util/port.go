package util

import (
	"fmt"
	"net"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ListenFirstFree binds the first free TCP port in [port, port+attempts) and
// returns the open listener, so the port cannot be taken before it is served.
func ListenFirstFree(host string, port, attempts int) (net.Listener, int, error) {
	if attempts <= 0 {
		attempts = 1
	}

	current := port
	for i := 0; i < attempts; i++ {
		if current > 65535 {
			break
		}
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(current)))
		if err == nil {
			if current != port {
				log.Info().Int("requested_port", port).Int("port", current).Msg("Requested port unavailable, using next free port")
			}
			return ln, ln.Addr().(*net.TCPAddr).Port, nil
		}
		log.Warn().Err(err).Int("port", current).Msg("Port unavailable, trying next")
		current++
	}
	return nil, 0, fmt.Errorf("no free port in %d attempts starting at %d", attempts, port)
}
