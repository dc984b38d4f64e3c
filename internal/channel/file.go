package channel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	StopMarkerName  = "stop.request"
	AbortMarkerName = "abort.request"
)

// FileChannel stores intents as marker files under a working directory.
type FileChannel struct {
	dir string
}

func NewFileChannel(dir string) *FileChannel {
	return &FileChannel{dir: dir}
}

func (c *FileChannel) stopPath() string  { return filepath.Join(c.dir, StopMarkerName) }
func (c *FileChannel) abortPath() string { return filepath.Join(c.dir, AbortMarkerName) }

func (c *FileChannel) PostStop() error  { return postMarker(c.stopPath()) }
func (c *FileChannel) PostAbort() error { return postMarker(c.abortPath()) }

func (c *FileChannel) ClearStop() error  { return clearMarker(c.stopPath()) }
func (c *FileChannel) ClearAbort() error { return clearMarker(c.abortPath()) }

// ClearAbortEscalateToStop sets the stop marker before removing the
// abort marker, so an interruption between the two steps can never
// leave the channel with no pending intent at all.
func (c *FileChannel) ClearAbortEscalateToStop() error {
	if err := postMarker(c.stopPath()); err != nil {
		return err
	}
	return clearMarker(c.abortPath())
}

func (c *FileChannel) StopRequested() (bool, error)  { return markerExists(c.stopPath()) }
func (c *FileChannel) AbortRequested() (bool, error) { return markerExists(c.abortPath()) }

// postMarker creates the marker file. An existing marker means the
// intent is already pending and is not an error.
func postMarker(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("post marker %s: %w", path, err)
	}
	return f.Close()
}

// clearMarker removes the marker file. A missing marker is not an error.
func clearMarker(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear marker %s: %w", path, err)
	}
	return nil
}

func markerExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat marker %s: %w", path, err)
}
