//go:build !unix

package exchange

import (
	"errors"
	"os"
)

var errUnsupportedPlatform = errors.New(
	"shared memory segments are not supported on this platform")

func mapFile(_ *os.File, _ int) ([]byte, error) {
	return nil, errUnsupportedPlatform
}

func unmapFile(_ []byte) error {
	return nil
}
