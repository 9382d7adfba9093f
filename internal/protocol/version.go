// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package protocol

// Version is a totally-ordered enumeration of the wire revisions this
// proxy understands (spec §3, §4.2). Comparisons between Versions gate
// encoding choices such as coordinate packing and UUID wire format.
type Version int32

// The wire protocol numbers assigned by Mojang for each supported release.
const (
	V1_8_9  Version = 47
	V1_12   Version = 335
	V1_14_4 Version = 498
	V1_16   Version = 735
)

// versionTable is kept in ascending order; ResolveVersion relies on it.
var versionTable = []Version{V1_8_9, V1_12, V1_14_4, V1_16}

// String returns a human label, mostly useful in log fields.
func (v Version) String() string {
	switch v {
	case V1_8_9:
		return "1.8.9"
	case V1_12:
		return "1.12"
	case V1_14_4:
		return "1.14.4"
	case V1_16:
		return "1.16"
	default:
		return "unknown"
	}
}

// AtLeast reports whether v is the same as or newer than other.
func (v Version) AtLeast(other Version) bool { return v >= other }

// ResolveVersion maps the wire integer sent in a Handshake packet to the
// greatest supported Version <= wire (future versions downgrade to the
// latest known revision this proxy speaks). An integer older than the
// oldest supported version is malformed.
func ResolveVersion(wire int32) (Version, error) {
	if int32(versionTable[0]) > wire {
		return 0, Malformed("protocol version %d predates the oldest supported version %d", wire, versionTable[0])
	}
	resolved := versionTable[0]
	for _, v := range versionTable {
		if int32(v) > wire {
			break
		}
		resolved = v
	}
	return resolved, nil
}
