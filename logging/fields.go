package logging

// Standard structured-logging field keys used across corelog's packages.
const (
	KeyHandle     = "handle"
	KeyName       = "name"
	KeyPath       = "path"
	KeyInode      = "inode"
	KeySize       = "size"
	KeyVersion    = "version"
	KeyCompressed = "compression"
)
