// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

// Watch watches the token's directory via inotify and returns a channel
// that closes when the token is rewritten (IN_CLOSE_WRITE) or renamed
// into place (IN_MOVED_TO, which is how Signal lands). The returned
// cleanup function stops the watcher and releases the inotify
// descriptor; it is safe to call more than once.
//
// A closed channel only means "poll now". Callers still confirm the
// token's contents with Poll, and keep polling on their own interval
// in case an event is missed.
func Watch(path string) (<-chan struct{}, func(), error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("inotify_init1: %w", err)
	}

	directory := filepath.Dir(path)
	_, err = unix.InotifyAddWatch(fd, directory, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO)
	if err != nil {
		unix.Close(fd)
		return nil, nil, fmt.Errorf("inotify_add_watch on %s: %w", directory, err)
	}

	changed := make(chan struct{})
	stop := make(chan struct{})

	go watchLoop(fd, filepath.Base(path), changed, stop)

	var once sync.Once
	cleanup := func() {
		once.Do(func() { close(stop) })
	}
	return changed, cleanup, nil
}

// watchLoop reads inotify events until one names the token, the stop
// channel closes, or the descriptor fails. poll(2) with a 100ms timeout
// keeps the loop responsive to stop without spinning.
func watchLoop(fd int, name string, changed chan struct{}, stop <-chan struct{}) {
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return
		default:
		}

		descriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(descriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if count == 0 {
			continue
		}

		read, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}

		if eventsName(buffer[:read], name) {
			close(changed)
			return
		}
	}
}

// eventsName scans a buffer of raw inotify events for one whose name
// equals name.
//
// Event layout (inotify(7)):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null padded
//	};
func eventsName(buffer []byte, name string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		if nameLength > 0 {
			raw := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			if nullTerminated(raw) == name {
				return true
			}
		}
		offset += eventSize
	}
	return false
}

func nullTerminated(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
