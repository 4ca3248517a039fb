package persist

import (
	"fmt"

	"github.com/nanolog/corelog/errs"
)

// VersionDecoder decodes a persisted entry's body for one specific legacy
// version, returning bytes in the current layout that MigrateEntry then
// writes to a freshly allocated entry. Callers pass one per pre-v4 layout
// they can read; no decoder is defined in this module.
type VersionDecoder func(body []byte) ([]byte, error)

// MigrateEntry migrates a pre-v4 persisted entry to the current layout:
// it reads the old entry through a versioned decoder, allocates a new
// entry in its place, and frees the old handle on success. The first
// byte of every entry is its version; decoders is keyed by that version.
//
// On success the old entry is freed and the new handle is returned. On
// failure the old entry is left untouched so a retry or manual recovery
// is still possible.
func MigrateEntry(s *FileStore, name string, decoders map[uint8]VersionDecoder) (Handle, error) {
	oldHandle, _, _, ok := s.LookupEntry(name)
	if !ok {
		return 0, fmt.Errorf("%w: no entry named %q to migrate", errs.ErrFormat, name)
	}

	body, err := s.MapEntry(oldHandle)
	if err != nil {
		return 0, err
	}
	if len(body) == 0 {
		s.UnmapEntry(oldHandle)
		return 0, fmt.Errorf("%w: empty entry %q", errs.ErrFormat, name)
	}

	version := body[0]
	decode, ok := decoders[version]
	if !ok {
		s.UnmapEntry(oldHandle)
		return 0, fmt.Errorf("%w: no migration decoder for entry version %d", errs.ErrVersion, version)
	}

	migrated, err := decode(body)
	s.UnmapEntry(oldHandle)
	if err != nil {
		return 0, fmt.Errorf("migrating entry %q from version %d: %w", name, version, err)
	}

	newHandle, err := s.AllocEntry(name, len(migrated))
	if err != nil {
		return 0, err
	}
	dst, err := s.MapEntry(newHandle)
	if err != nil {
		return 0, err
	}
	copy(dst, migrated)
	s.UnmapEntry(newHandle)

	return newHandle, nil
}
