// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"errors"
	"syscall"
)

// isFatal reports whether an fsnotify error means the watcher can no longer
// deliver events: the inotify watch limit or a file descriptor limit was hit.
func isFatal(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
