// Package rules loads the sequence of tag fixes applied to every file and
// runs it against an editing session.
//
// A rule names a tag and lists actions in the order they run:
//
//	rules:
//	  - tag: CreateDate
//	    if_missing: "{{mtime}}"
//	    if_invalid_date: "{{mtime}}"
//	  - tag: Copyright
//	    if_missing: "{{copyright}}"
package rules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/fixexif/internal/profile"
	"github.com/fakeyudi/fixexif/internal/session"
)

// ErrUnknownAction is returned for a rule key that is not an action.
var ErrUnknownAction = errors.New("unknown rule action")

// Action is one kind of edit a rule can make.
type Action string

const (
	IfMissing     Action = "if_missing"
	IfInvalidDate Action = "if_invalid_date"
	Replace       Action = "replace"
	Assign        Action = "set"
)

// Step is one action with its value template.
type Step struct {
	Action Action
	Value  string
}

// Rule is the ordered list of steps for one tag.
type Rule struct {
	Tag   string
	Steps []Step
}

// Set is a complete rule sequence.
type Set struct {
	Rules []Rule `yaml:"rules"`
	// PreserveModTime restores each edited file's modification time after
	// the commit. Defaults to true.
	PreserveModTime *bool `yaml:"preserve_mod_time"`
}

// UnmarshalYAML decodes a rule mapping, keeping its actions in file order.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: rule must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var s string
		if err := val.Decode(&s); err != nil {
			return fmt.Errorf("line %d: %s: %w", val.Line, key.Value, err)
		}
		switch a := Action(key.Value); a {
		case "tag":
			r.Tag = s
		case IfMissing, IfInvalidDate, Replace, Assign:
			r.Steps = append(r.Steps, Step{Action: a, Value: s})
		default:
			return fmt.Errorf("line %d: %w %q", key.Line, ErrUnknownAction, key.Value)
		}
	}
	return nil
}

// Parse decodes and validates a rule sequence.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	for i, r := range set.Rules {
		if r.Tag == "" {
			return nil, fmt.Errorf("rule %d: missing tag", i+1)
		}
		if len(r.Steps) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no actions", i+1, r.Tag)
		}
		for _, st := range r.Steps {
			if err := checkPlaceholders(st.Value); err != nil {
				return nil, fmt.Errorf("rule %d (%s): %w", i+1, r.Tag, err)
			}
		}
	}
	return &set, nil
}

// Load reads a rule sequence from path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	return set, nil
}

// Default returns the built-in sequence: fill or repair the capture dates
// from the file's modification time, fill the device, author and software
// tags from the profile, and keep the modification time.
func Default() *Set {
	mtime := "{{mtime}}"
	return &Set{Rules: []Rule{
		{Tag: "CreateDate", Steps: []Step{{IfMissing, mtime}, {IfInvalidDate, mtime}}},
		{Tag: "DateTimeOriginal", Steps: []Step{{IfMissing, mtime}, {IfInvalidDate, mtime}}},
		{Tag: "ModifyDate", Steps: []Step{{IfMissing, mtime}}},
		{Tag: "Make", Steps: []Step{{IfMissing, "{{make}}"}}},
		{Tag: "Model", Steps: []Step{{IfMissing, "{{model}}"}}},
		{Tag: "Artist", Steps: []Step{{IfMissing, "{{artist}}"}}},
		{Tag: "Copyright", Steps: []Step{{IfMissing, "{{copyright}}"}}},
		{Tag: "Software", Steps: []Step{{IfMissing, "{{software}}"}}},
	}}
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (s *Set) preserve() bool {
	return s.PreserveModTime == nil || *s.PreserveModTime
}

// Apply runs every rule against the file selected in sess. A step whose
// value expands to an empty string is skipped so that a blank profile field
// never deletes a tag.
func (s *Set) Apply(ctx context.Context, sess *session.Session, prof *profile.Profile) error {
	if prof == nil {
		prof = profile.Defaults()
	}
	for _, r := range s.Rules {
		focused := false
		for _, st := range r.Steps {
			value := expander(st.Value, prof)
			var err error
			switch st.Action {
			case Assign:
				var v string
				if v, err = value(sess); err == nil {
					err = sess.SetTagValue(r.Tag, v)
				}
			case IfMissing, IfInvalidDate, Replace:
				if !focused {
					if _, err = sess.GetTagValue(ctx, r.Tag); err != nil {
						return err
					}
					focused = true
				}
				switch st.Action {
				case IfMissing:
					err = sess.IfMissingReplaceWith(value)
				case IfInvalidDate:
					err = sess.IfInvalidDateReplaceWith(value)
				default:
					err = sess.ReplaceWith(value)
				}
			default:
				return fmt.Errorf("%w %q", ErrUnknownAction, st.Action)
			}
			if errors.Is(err, errEmptyValue) {
				continue
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", r.Tag, st.Action, err)
			}
		}
	}
	if s.preserve() {
		return sess.PreserveDateFileModified()
	}
	return nil
}

// errEmptyValue marks a value that expanded to nothing.
var errEmptyValue = errors.New("empty value")

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-z]+)\s*\}\}`)

var placeholders = map[string]bool{
	"mtime": true, "year": true, "artist": true, "copyright": true,
	"make": true, "model": true, "software": true,
}

func checkPlaceholders(tmpl string) error {
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !placeholders[m[1]] {
			return fmt.Errorf("unknown placeholder %s", m[0])
		}
	}
	return nil
}

// expander returns a session value that fills tmpl's placeholders from the
// selected file and prof when it is evaluated.
func expander(tmpl string, prof *profile.Profile) session.Value {
	return func(sess *session.Session) (string, error) {
		mod := sess.DateFileModified()
		out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
			switch placeholderRe.FindStringSubmatch(m)[1] {
			case "mtime":
				return session.FormatDate(mod)
			case "year":
				return strconv.Itoa(mod.UTC().Year())
			case "artist":
				return prof.Artist
			case "copyright":
				return prof.Copyright(mod.UTC().Year())
			case "make":
				return prof.Make
			case "model":
				return prof.Model
			case "software":
				return prof.Software
			}
			return m
		})
		if out == "" {
			return "", errEmptyValue
		}
		return out, nil
	}
}
