// Package target describes which instances a remote command is sent to.
package target

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackadi-io/ssmctl/internal/config"
	"github.com/jackadi-io/ssmctl/internal/helper"
)

var ErrNoTarget = errors.New("no target: provide instance IDs or a tag value")

// TagFilter selects the instances carrying the tag Key with the value Value.
type TagFilter struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Spec is the target selection of a command: explicit instance IDs, a tag
// filter, or both.
//
// When both are set, they are forwarded together and the backend resolves
// the final set of instances.
type Spec struct {
	InstanceIDs []string  `json:"instanceIds,omitempty" yaml:"instanceIds,omitempty"`
	Tag         TagFilter `json:"tag" yaml:"tag"`
}

// Parse builds a Spec from a comma separated list of instance IDs and a tag
// filter. An empty tagKey falls back to the default tag key.
func Parse(explicit, tagKey, tagValue string) Spec {
	if strings.TrimSpace(tagKey) == "" {
		tagKey = config.DefaultTagKey
	}

	return Spec{
		InstanceIDs: helper.SplitList(explicit, config.ListSeparator),
		Tag: TagFilter{
			Key:   strings.TrimSpace(tagKey),
			Value: strings.TrimSpace(tagValue),
		},
	}
}

// WithInstances returns a copy of s targeting the extra instance IDs too.
func (s Spec) WithInstances(ids ...string) Spec {
	instances := append([]string{}, s.InstanceIDs...)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		instances = helper.AppendUnique(instances, id)
	}
	s.InstanceIDs = instances
	return s
}

// HasTagFilter reports whether the tag filter takes part in the selection.
//
// A filter without value is ignored.
func (s Spec) HasTagFilter() bool {
	return s.Tag.Key != "" && s.Tag.Value != ""
}

func (s Spec) HasInstances() bool {
	return len(s.InstanceIDs) > 0
}

func (s Spec) IsEmpty() bool {
	return !s.HasInstances() && !s.HasTagFilter()
}

func (s Spec) Validate() error {
	if s.IsEmpty() {
		return ErrNoTarget
	}
	return nil
}

func (s Spec) String() string {
	parts := []string{}
	if s.HasInstances() {
		parts = append(parts, strings.Join(s.InstanceIDs, config.ListSeparator))
	}
	if s.HasTagFilter() {
		parts = append(parts, fmt.Sprintf("tag:%s=%s", s.Tag.Key, s.Tag.Value))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " + ")
}

// FromFile reads instance IDs from a file, one per line.
//
// Blank lines, lines starting with '#' and duplicates are skipped.
func FromFile(file string) ([]string, error) {
	fd, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	scanner := bufio.NewScanner(fd)
	instances := []string{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		instances = helper.AppendUnique(instances, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}

	return instances, nil
}
