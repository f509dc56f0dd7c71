package upload

import (
	"strconv"
	"strings"
)

// Identity names one in-flight upload. Concurrent uploads sharing a display
// name are told apart by a numeric suffix: the first one is plain Name, the
// following ones Name_0, Name_1, ...
type Identity struct {
	Name      string
	Suffix    int
	HasSuffix bool
}

func bareIdentity(name string) Identity {
	return Identity{Name: name}
}

func suffixedIdentity(name string, n int) Identity {
	return Identity{Name: name, Suffix: n, HasSuffix: true}
}

// Key is the registry key and the chunk file name of the upload.
func (id Identity) Key() string {
	if !id.HasSuffix {
		return id.Name
	}
	return id.Name + "_" + strconv.Itoa(id.Suffix)
}

func (id Identity) String() string {
	return id.Key()
}

// validName reports whether name can be used as a flat file name inside the
// temporary directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
