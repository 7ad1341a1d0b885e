package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/claytonsingh/golib/dotaccess"
	"github.com/spf13/cast"
)

var ErrEmptyQuery = errors.New("empty filter expression")

var queryFields = []string{"id", "name", "address", "privateAddress", "publicAddress", "state", "type", "zone", "launchTime", "tags"}

// Filter returns the instances matching the query, in their original order.
//
// A query is made of conditions combined with " and " and " or " (and has
// precedence). A condition is field==value, field=~glob or field=~/regex/.
// Supported fields are id, name, address, privateAddress, publicAddress,
// state, type, zone, launchTime and tags.<key>.
//
// An id==value condition accepts a comma separated list of identifiers.
func Filter(instances []Instance, query string) ([]Instance, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	matched := make([]bool, len(instances))
	for orGroup := range strings.SplitSeq(query, " or ") {
		orGroup = strings.TrimSpace(orGroup)
		if orGroup == "" {
			continue
		}

		andResult, err := evaluateAndGroup(instances, orGroup)
		if err != nil {
			return nil, fmt.Errorf("OR group %q: %w", orGroup, err)
		}

		for i, ok := range andResult {
			matched[i] = matched[i] || ok
		}
	}

	result := []Instance{}
	for i, inst := range instances {
		if matched[i] {
			result = append(result, inst)
		}
	}
	return result, nil
}

func evaluateAndGroup(instances []Instance, andGroup string) ([]bool, error) {
	candidates := make([]bool, len(instances))
	for i := range candidates {
		candidates[i] = true
	}

	for condition := range strings.SplitSeq(andGroup, " and ") {
		condition = strings.TrimSpace(condition)
		if condition == "" {
			continue
		}

		match, err := parseCondition(condition)
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", condition, err)
		}

		for i, inst := range instances {
			if candidates[i] {
				candidates[i] = match(inst)
			}
		}
	}

	return candidates, nil
}

type matcher func(Instance) bool

// parseCondition compiles a condition like "id==i-123" or "tags.service=~web*".
func parseCondition(condition string) (matcher, error) {
	// the first operator splits the condition, the value may contain the other.
	operator := ""
	pos := -1
	for _, op := range []string{"==", "=~"} {
		if i := strings.Index(condition, op); i >= 0 && (pos < 0 || i < pos) {
			operator, pos = op, i
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("unsupported operator in condition: %q", condition)
	}
	field := strings.TrimSpace(condition[:pos])
	value := strings.TrimSpace(condition[pos+len(operator):])

	if field == "" {
		return nil, errors.New("missing field")
	}
	root, _, _ := strings.Cut(field, ".")
	if !slices.Contains(queryFields, root) {
		return nil, fmt.Errorf("unsupported field: %q", field)
	}

	match, err := valueMatcher(operator, value, field == "id")
	if err != nil {
		return nil, err
	}

	return func(i Instance) bool {
		v, ok := fieldValue(i, field)
		return ok && match(v)
	}, nil
}

func valueMatcher(operator, value string, list bool) (func(string) bool, error) {
	switch operator {
	case "==":
		if list && strings.Contains(value, ",") {
			values := strings.Split(value, ",")
			return func(s string) bool {
				for _, v := range values {
					if strings.TrimSpace(v) == s {
						return true
					}
				}
				return false
			}, nil
		}
		return func(s string) bool { return s == value }, nil

	case "=~":
		if len(value) >= 2 && strings.HasPrefix(value, "/") && strings.HasSuffix(value, "/") {
			pattern := value[1 : len(value)-1]
			regex, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
			}
			return regex.MatchString, nil
		}

		if _, err := filepath.Match(value, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", value, err)
		}
		return func(s string) bool {
			ok, _ := filepath.Match(value, s)
			return ok
		}, nil
	}

	return nil, fmt.Errorf("unsupported operator: %q", operator)
}

// document exposes the queryable fields of an instance.
func (i Instance) document() map[string]any {
	tags := make(map[string]any, len(i.Tags))
	for _, t := range i.Tags {
		if _, exists := tags[t.Key]; !exists {
			tags[t.Key] = t.Value
		}
	}

	return map[string]any{
		"id":             i.ID,
		"name":           i.Name,
		"address":        i.Address(),
		"privateAddress": i.PrivateAddress,
		"publicAddress":  i.PublicAddress,
		"state":          i.State,
		"type":           i.Type,
		"zone":           i.Zone,
		"launchTime":     i.LaunchTime,
		"tags":           tags,
	}
}

// fieldValue resolves a field path against an instance.
//
// Tag keys may contain dots (e.g. "aws:cloudformation.stack"), so a tag
// matching the whole key takes precedence over path resolution.
func fieldValue(inst Instance, field string) (string, bool) {
	if key, ok := strings.CutPrefix(field, "tags."); ok {
		if v, found := inst.Tag(key); found {
			return v, true
		}
	}

	doc := inst.document()
	a, err := dotaccess.NewAccessorDot[any, map[string]any](&doc, field)
	if err != nil {
		return "", false
	}

	value := a.Get()
	if value == nil {
		return "", false
	}
	if reflect.ValueOf(value).Kind() == reflect.Pointer {
		value = reflect.ValueOf(value).Elem().Interface()
	}

	// only leaves can be compared.
	switch reflect.ValueOf(value).Kind() { //nolint:exhaustive // scalar kinds are handled by cast
	case reflect.Array, reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		slog.Debug("invalid field", "field", field, "error", "not a valid leaf")
		return "", false
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		slog.Debug("invalid field", "field", field, "error", err)
		return "", false
	}
	return s, true
}
