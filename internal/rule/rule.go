// Package rule defines synchronization rules: issues of the Source tracker
// are mirrored into the Dest tracker.
package rule

import (
	"errors"
	"strings"
)

var ErrInvalid = errors.New("invalid rule")

type Rule struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source" binding:"required"`
	Dest   string `json:"dest"   binding:"required,nefield=Source"`
	// ProjectID is reserved for trackers whose fields differ per project.
	ProjectID string `json:"project_id,omitempty"`
}

// Normalize trims surrounding whitespace from every field.
func (r Rule) Normalize() Rule {
	r.ID = strings.TrimSpace(r.ID)
	r.Source = strings.TrimSpace(r.Source)
	r.Dest = strings.TrimSpace(r.Dest)
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	return r
}

func (r Rule) Validate() error {
	switch {
	case r.Source == "":
		return errors.Join(ErrInvalid, errors.New("source is required"))
	case r.Dest == "":
		return errors.Join(ErrInvalid, errors.New("dest is required"))
	case r.Source == r.Dest:
		return errors.Join(ErrInvalid, errors.New("source and dest must differ"))
	}
	return nil
}

// Key is the query selecting rules with the same source and dest, narrowed
// to the project when one is set.
func (r Rule) Key() map[string]any {
	q := map[string]any{"source": r.Source, "dest": r.Dest}
	if r.ProjectID != "" {
		q["project_id"] = r.ProjectID
	}
	return q
}

func (r Rule) Document() map[string]any {
	d := map[string]any{"source": r.Source, "dest": r.Dest}
	if r.ID != "" {
		d["id"] = r.ID
	}
	if r.ProjectID != "" {
		d["project_id"] = r.ProjectID
	}
	return d
}

// Same reports whether r and o describe the same mapping, ignoring IDs.
func (r Rule) Same(o Rule) bool {
	return r.Source == o.Source && r.Dest == o.Dest && r.ProjectID == o.ProjectID
}

func FromDocument(doc map[string]any) Rule {
	s := func(k string) string { v, _ := doc[k].(string); return v }
	return Rule{ID: s("id"), Source: s("source"), Dest: s("dest"), ProjectID: s("project_id")}
}
