// Package fileshare implements the YAML-file catalog backend: all entries
// are public unless a "recipients" allowlist is given, in which case only
// listed recipients see them. Grounded on original_source's
// src/catalog/file/mod.rs, re-expressed with gopkg.in/yaml.v3 the way the
// teacher loads its own env/config documents (internal/config/config.go).
package fileshare

// document is the on-disk shape of the catalog file (spec.md §6):
//
//	shares:
//	  - name: share1
//	    recipients: [alice]   # omit for public visibility
//	    schemas:
//	      - name: schema1
//	        tables:
//	          - name: table1
//	            location: s3://bucket/prefix/table1
//	            id: "..."
type document struct {
	Shares []shareEntry `yaml:"shares"`
}

type shareEntry struct {
	Name       string       `yaml:"name"`
	ID         string       `yaml:"id"`
	Recipients []string     `yaml:"recipients"`
	Schemas    []schemaEntry `yaml:"schemas"`
}

type schemaEntry struct {
	Name   string       `yaml:"name"`
	ID     string       `yaml:"id"`
	Tables []tableEntry `yaml:"tables"`
}

type tableEntry struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	ID       string `yaml:"id"`
	Format   string `yaml:"format"`
}

// visibleTo reports whether the share is visible to the recipient id
// string ("ANONYMOUS" or the literal recipient id). Absence of a
// recipients allowlist means publicly visible.
func (s shareEntry) visibleTo(recipient string) bool {
	if len(s.Recipients) == 0 {
		return true
	}
	for _, r := range s.Recipients {
		if r == recipient {
			return true
		}
	}
	return false
}
