package tags

import (
	"errors"
	"sort"
	"strings"
)

// Tags is a small validated string set attached to transactions. System tags
// mark engine-generated records; Link tags back-reference the transaction an
// adjustment compensates for.
type Tags []string

const (
	// Opening marks a synthetic opening-balance transaction.
	Opening = "opening"
	// Adjustment marks a synthetic edit-adjustment transaction.
	Adjustment = "adjustment"
	// linkPrefix prefixes a back-reference to the edited transaction id.
	linkPrefix = "link:"
)

const (
	MaxTags   = 16
	MaxTagLen = 64
)

// New builds a normalized tag set: trimmed, lowercased, de-duplicated,
// sorted for stable encoding.
func New(in []string) Tags {
	seen := make(map[string]struct{}, len(in))
	out := make(Tags, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Link returns the back-reference tag for a transaction id.
func Link(id string) string { return linkPrefix + id }

// LinkedID returns the id carried by a link tag, if any.
func (t Tags) LinkedID() (string, bool) {
	for _, tag := range t {
		if strings.HasPrefix(tag, linkPrefix) {
			return strings.TrimPrefix(tag, linkPrefix), true
		}
	}
	return "", false
}

// Has reports whether the set contains the tag.
func (t Tags) Has(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// With returns a copy with the tag appended if absent.
func (t Tags) With(tag string) Tags {
	if t.Has(tag) {
		return t
	}
	out := make(Tags, len(t), len(t)+1)
	copy(out, t)
	out = append(out, tag)
	sort.Strings(out)
	return out
}

// Clone returns a copy of the set.
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	copy(out, t)
	return out
}

// Validate enforces count and length limits.
func (t Tags) Validate() error {
	if len(t) > MaxTags {
		return errors.New("too many tags")
	}
	for _, v := range t {
		if v == "" || len(v) > MaxTagLen {
			return errors.New("tag empty or too long")
		}
	}
	return nil
}
