// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package filewatch

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// Debounce is how long the watcher waits after a change before
	// invoking the callback, so a burst of writes triggers one call.
	Debounce = 50 * time.Millisecond

	// pollTimeout bounds how long the loop blocks before checking
	// whether it was stopped, in milliseconds.
	pollTimeout = 100
)

// Watcher delivers change notifications for one file until stopped.
type Watcher struct {
	path     string
	fd       int
	onChange func()
	logger   *slog.Logger

	stopChannel chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
}

// Watch starts watching path and calls onChange from a background
// goroutine after each settled change. onChange is never called
// concurrently with itself.
func Watch(path string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	directory := filepath.Dir(absolutePath)

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}
	if _, err := unix.InotifyAddWatch(fd, directory, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("inotify_add_watch on %s: %w", directory, err)
	}

	watcher := &Watcher{
		path:        absolutePath,
		fd:          fd,
		onChange:    onChange,
		logger:      logger,
		stopChannel: make(chan struct{}),
		done:        make(chan struct{}),
	}
	go watcher.loop()
	logger.Debug("watching file", "path", absolutePath)
	return watcher, nil
}

// Path returns the absolute path being watched.
func (watcher *Watcher) Path() string {
	return watcher.path
}

// Stop ends the watch and waits for the background goroutine, and any
// callback it is running, to return. Safe to call more than once.
func (watcher *Watcher) Stop() {
	watcher.stopOnce.Do(func() {
		close(watcher.stopChannel)
	})
	<-watcher.done
}

// Done is closed when the watcher has exited, either through Stop or
// because the inotify descriptor failed.
func (watcher *Watcher) Done() <-chan struct{} {
	return watcher.done
}

func (watcher *Watcher) loop() {
	defer close(watcher.done)
	defer unix.Close(watcher.fd)

	filename := filepath.Base(watcher.path)
	buffer := make([]byte, 4096)
	for {
		select {
		case <-watcher.stopChannel:
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(watcher.fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, pollTimeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			watcher.logger.Warn("file watch stopped", "path", watcher.path, "error", err)
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(watcher.fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			watcher.logger.Warn("file watch stopped", "path", watcher.path, "error", err)
			return
		}
		if !eventsContainFilename(buffer[:bytesRead], filename) {
			continue
		}

		select {
		case <-watcher.stopChannel:
			return
		case <-time.After(Debounce):
		}
		drainEvents(watcher.fd, buffer)

		watcher.logger.Debug("watched file changed", "path", watcher.path)
		watcher.onChange()
	}
}

// eventsContainFilename scans a buffer of raw inotify events for one
// whose name matches filename. Layout from inotify(7):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null-padded to alignment
//	};
func eventsContainFilename(buffer []byte, filename string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		if nameLength > 0 {
			name := nullTerminatedString(buffer[offset+unix.SizeofInotifyEvent : offset+eventSize])
			if name == filename {
				return true
			}
		}
		offset += eventSize
	}
	return false
}

func nullTerminatedString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}

// drainEvents discards pending events until the descriptor reports
// EAGAIN.
func drainEvents(fd int, buffer []byte) {
	for {
		if _, err := unix.Read(fd, buffer); err != nil {
			return
		}
	}
}
