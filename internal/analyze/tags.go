package analyze

import (
	"strings"

	"relmap/internal/diagnostic"
	"relmap/internal/match"
)

// TagKey is the struct tag the class builder reads.
const TagKey = "relmap"

// Options is the parsed form of a `relmap:"..."` tag.
//
//	ID      int64     `relmap:"id,auto"`
//	Lines   []*Line   `relmap:"mappedby=Order,ordered"`
//	Status  Priority  `relmap:"strategy=enum(ordinal)"`
//	Scratch string    `relmap:"-"`
type Options struct {
	Skip bool

	ID         bool
	Auto       bool
	Version    bool
	Embedded   bool
	Serialized bool
	LOB        bool
	OID        bool
	Untyped    bool
	Ordered    bool

	MappedBy string
	OrderBy  string
	Strategy string
	Column   string
}

var flagOptions = map[string]func(*Options){
	"id":         func(o *Options) { o.ID = true },
	"auto":       func(o *Options) { o.Auto = true },
	"version":    func(o *Options) { o.Version = true },
	"embedded":   func(o *Options) { o.Embedded = true },
	"serialized": func(o *Options) { o.Serialized = true },
	"lob":        func(o *Options) { o.LOB = true },
	"oid":        func(o *Options) { o.OID = true },
	"untyped":    func(o *Options) { o.Untyped = true },
	"ordered":    func(o *Options) { o.Ordered = true },
	"transient":  func(o *Options) { o.Skip = true },
}

var valueOptions = map[string]func(*Options, string){
	"mappedby": func(o *Options, v string) { o.MappedBy = v },
	"orderby":  func(o *Options, v string) { o.OrderBy = v },
	"strategy": func(o *Options, v string) { o.Strategy = v },
	"column":   func(o *Options, v string) { o.Column = v },
}

func optionNames() []string {
	names := make([]string, 0, len(flagOptions)+len(valueOptions))
	for k := range flagOptions {
		names = append(names, k)
	}

	for k := range valueOptions {
		names = append(names, k)
	}

	return names
}

// ParseTag parses a relmap tag value. The context names the field for
// error messages.
func ParseTag(tag, context string) (Options, error) {
	var opts Options

	tag = strings.TrimSpace(tag)
	if tag == "-" {
		opts.Skip = true
		return opts, nil
	}

	// Commas inside parentheses belong to a strategy argument.
	for _, part := range splitTag(tag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, val, hasVal := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		if set, ok := flagOptions[key]; ok && !hasVal {
			set(&opts)
			continue
		}

		if set, ok := valueOptions[key]; ok && hasVal {
			if val == "" {
				return opts, diagnostic.Errorf("bad-tag", context, "tag option %q needs a value", key)
			}

			set(&opts, val)

			continue
		}

		return opts, diagnostic.Errorf("bad-tag", context, "unknown tag option %q", part).
			WithSuggestions(match.Suggest(key, optionNames(), 3)...)
	}

	if opts.Auto && !opts.ID && !opts.Version {
		return opts, diagnostic.Errorf("bad-tag", context, "auto only applies to id fields")
	}

	return opts, nil
}

func splitTag(tag string) []string {
	var (
		parts []string
		depth int
		start int
	)

	for i, r := range tag {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, tag[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, tag[start:])
}
