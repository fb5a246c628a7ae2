package prog

import (
	"flag"
	"os"
	"strings"

	"src.guictl.dev/pkg/env"
)

// FlagSet wraps a [flag.FlagSet]. It also provides flags shared by more than
// one program; each of them is registered the first time it is requested.
type FlagSet struct {
	*flag.FlagSet
	endpoint *Endpoint
	json     *bool
}

// Endpoint keeps the address of a render host.
type Endpoint struct {
	Network, Addr string
}

// Endpoint returns the -network and -addr flags.
func (fs *FlagSet) Endpoint() *Endpoint {
	if fs.endpoint == nil {
		var ep Endpoint
		fs.StringVar(&ep.Network, "network", "",
			`network of the render host, "tcp" or "unix"`)
		fs.StringVar(&ep.Addr, "addr", "",
			"address of the render host; defaults to $"+env.GUICTL_ADDR)
		fs.endpoint = &ep
	}
	return fs.endpoint
}

// Resolve fills in unset fields, the address from the environment or addr,
// and the network from network. An address that looks like a path implies
// the unix network.
func (ep *Endpoint) Resolve(network, addr string) Endpoint {
	resolved := *ep
	if resolved.Addr == "" {
		resolved.Addr = os.Getenv(env.GUICTL_ADDR)
	}
	if resolved.Addr == "" {
		resolved.Addr = addr
	}
	if resolved.Network == "" {
		if strings.ContainsRune(resolved.Addr, os.PathSeparator) {
			resolved.Network = "unix"
		} else {
			resolved.Network = network
		}
	}
	return resolved
}

// JSON returns the -json flag.
func (fs *FlagSet) JSON() *bool {
	if fs.json == nil {
		var json bool
		fs.BoolVar(&json, "json", false,
			"show the output from -buildinfo or -version in JSON")
		fs.json = &json
	}
	return fs.json
}
