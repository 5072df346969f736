//go:build linux

package capture

import (
	"fmt"
	"syscall"

	"go2tv.app/pwcapture/internal/pipewire"
	"go2tv.app/pwcapture/portal"
)

// Open runs the ScreenCast portal handshake, connects the PipeWire source
// and returns a streaming session. It fails with one of the enumerated init
// errors; nothing leaks on any failure path.
func Open(options *Options) (*Session, error) {
	o, err := validateOptions(options)
	if err != nil {
		return nil, err
	}

	if !pipewire.IsAvailable() {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, pipewire.ErrLibraryNotLoaded)
	}

	sess, err := portal.CreateSession(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	if sess == nil {
		return nil, ErrPermissionDenied
	}

	// Close the portal session on any setup failure.
	cleanupSession := true
	defer func() {
		if cleanupSession {
			_ = sess.Close()
		}
	}()

	cursorMode := portal.CursorModeHidden
	if o.CursorVisible {
		cursorMode = portal.CursorModeEmbedded
	}
	persistMode := portal.PersistModeNone
	if o.RestoreFile != "" {
		persistMode = portal.PersistModePersistent
	}

	err = sess.SelectSources(&portal.SelectSourcesOptions{
		Types:        portal.SourceTypeMonitor | portal.SourceTypeWindow,
		CursorMode:   cursorMode,
		RestoreToken: portal.LoadToken(o.RestoreFile),
		PersistMode:  persistMode,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	result, err := sess.Start("", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	if result == nil {
		return nil, ErrPermissionDenied
	}
	if len(result.Streams) == 0 {
		return nil, ErrNoStreams
	}

	if err := portal.SaveToken(o.RestoreFile, result.RestoreToken); err != nil {
		o.Logger.WithError(err).Warn("could not persist restore token")
	}

	selected := result.Streams[0]
	if selected.Size[0] <= 0 || selected.Size[1] <= 0 {
		return nil, fmt.Errorf("%w: invalid stream size %dx%d", ErrConnectFailed, selected.Size[0], selected.Size[1])
	}

	fd, err := sess.OpenPipeWireRemote()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	defer syscall.Close(fd)

	src, err := pipewire.NewSource(fd, selected.NodeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	s := newSession(o, src)
	s.closers = append(s.closers, sess)
	cleanupSession = false

	if err := s.start(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	if err := s.waitFormat(defaultFormatTimeout); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}
