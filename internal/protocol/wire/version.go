package wire

import "fmt"

// Version is the protocol major/minor pair a buffer was encoded with.
type Version struct {
	Major uint8
	Minor uint8
}

// Current is the version this codec writes.
var Current = Version{Major: 14, Minor: 1}

// MaxDecodeDepth bounds container nesting when no override is configured.
const MaxDecodeDepth = 16

// Supported reports whether buffers written with v can be read.
func (v Version) Supported() bool {
	return v.Major == Current.Major
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
