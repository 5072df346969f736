//go:build !linux || !cgo

package pipewire

import (
	"errors"

	"go2tv.app/pwcapture/source"
)

var ErrLibraryNotLoaded = errors.New("pipewire capture backend is only available on linux")

type Source struct{}

func IsAvailable() bool {
	return false
}

func NewSource(fd int, nodeID uint32) (*Source, error) {
	return nil, ErrLibraryNotLoaded
}

func (s *Source) SetHandler(h source.Handler) {}

func (s *Source) Connect(params source.ConnectParams) error {
	return ErrLibraryNotLoaded
}

func (s *Source) UpdateParams(params source.BufferParams) error {
	return ErrLibraryNotLoaded
}

func (s *Source) Start() error {
	return ErrLibraryNotLoaded
}

func (s *Source) Stop() {}

func (s *Source) Close() error {
	return nil
}
