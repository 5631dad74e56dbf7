package mavenindex

import (
	"strconv"
	"strings"
	"time"
)

// Well-known document field names
const (
	FieldUInfo      = "u"
	FieldInfo       = "i"
	FieldModified   = "m"
	FieldDeleted    = "del"
	FieldDescriptor = "DESCRIPTOR"
)

// notAvailable marks an absent classifier in a uinfo value
const notAvailable = "NA"

// Field is one stored field of a document
type Field struct {
	Flags byte
	Name  string
	Value string
}

// Document is one index record
type Document struct {
	Fields []Field
}

// Get returns the first value stored under name
func (d Document) Get(name string) (string, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Deleted reports a deletion record
func (d Document) Deleted() bool {
	_, ok := d.Get(FieldDeleted)
	return ok
}

// UInfo is the parsed coordinate of an artifact document
type UInfo struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	Extension  string
}

// ParseUInfo splits group|artifact|version|classifier|extension.
// Older segments omit the extension; a classifier of NA means none
func ParseUInfo(s string) (UInfo, bool) {
	parts := strings.Split(s, "|")
	if len(parts) < 3 {
		return UInfo{}, false
	}
	u := UInfo{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	if len(parts) > 3 && parts[3] != notAvailable {
		u.Classifier = parts[3]
	}
	if len(parts) > 4 {
		u.Extension = parts[4]
	}
	return u, true
}

// Coordinate returns the uinfo of an artifact document. Deletions, descriptors and group lists have none
func (d Document) Coordinate() (UInfo, bool) {
	if d.Deleted() {
		return UInfo{}, false
	}
	v, ok := d.Get(FieldUInfo)
	if !ok {
		return UInfo{}, false
	}
	return ParseUInfo(v)
}

// LastModified returns the artifact's modification time in epoch millis.
// The m field wins; the second segment of i is the fallback
func (d Document) LastModified() (int64, bool) {
	if v, ok := d.Get(FieldModified); ok {
		if ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return ms, true
		}
	}
	if v, ok := d.Get(FieldInfo); ok {
		parts := strings.Split(v, "|")
		if len(parts) > 1 {
			if ms, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
				return ms, true
			}
		}
	}
	return 0, false
}

// Meta summarizes a read segment
type Meta struct {
	Version   byte
	Published time.Time // zero when the segment carries no timestamp
	Documents int
}
