// Package dirmon implements the directory monitor (C8): it watches a
// directory for file and subdirectory creation/deletion and emits Events
// on a channel. Two interchangeable backends share the Monitor interface:
// EventMonitor, backed by github.com/fsnotify/fsnotify, and PollMonitor, a
// ticker-driven directory-listing diff for filesystems or platforms
// without inotify/kqueue support.
package dirmon

import "os"

// Kind identifies what happened to a directory entry.
type Kind int

const (
	FileCreated Kind = iota
	DirectoryCreated
	FileDeleted
	DirectoryDeleted
	Unknown
)

func (k Kind) String() string {
	switch k {
	case FileCreated:
		return "file_created"
	case DirectoryCreated:
		return "directory_created"
	case FileDeleted:
		return "file_deleted"
	case DirectoryDeleted:
		return "directory_deleted"
	default:
		return "unknown"
	}
}

// Event reports one directory-entry change.
type Event struct {
	Kind Kind
	Path string
}

// Monitor watches one directory and reports changes on Events().
type Monitor interface {
	// Start begins watching. It must not be called twice.
	Start() error
	// Stop halts watching and closes the Events channel.
	Stop() error
	// Events returns the channel new Events are delivered on.
	Events() <-chan Event
}

// classifyCreate reports the Kind for a newly-seen path, given whether a
// successful os.Stat found it to be a directory.
func classifyCreate(info os.FileInfo) Kind {
	if info == nil {
		return Unknown
	}
	if info.IsDir() {
		return DirectoryCreated
	}
	return FileCreated
}

// classifyDelete reports the Kind for a removed path, given whether it
// was known (from a prior stat) to have been a directory. A deleted path
// can no longer be stat'd, so callers must track this themselves.
func classifyDelete(wasDir bool) Kind {
	if wasDir {
		return DirectoryDeleted
	}
	return FileDeleted
}
