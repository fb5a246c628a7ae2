//go:build !unix

package sys

func privateSocketUmask() func() { return func() {} }
