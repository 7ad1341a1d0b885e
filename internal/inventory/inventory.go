// Package inventory lists the running instances and their tags.
package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackadi-io/ssmctl/internal/apierror"
	"github.com/jackadi-io/ssmctl/internal/config"
)

type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Instance is a snapshot of a running instance. Tags keep the provider order.
type Instance struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name,omitempty" yaml:"name,omitempty"`
	PrivateAddress string    `json:"privateAddress,omitempty" yaml:"privateAddress,omitempty"`
	PublicAddress  string    `json:"publicAddress,omitempty" yaml:"publicAddress,omitempty"`
	State          string    `json:"state" yaml:"state"`
	Type           string    `json:"type,omitempty" yaml:"type,omitempty"`
	Zone           string    `json:"zone,omitempty" yaml:"zone,omitempty"`
	LaunchTime     time.Time `json:"launchTime" yaml:"launchTime"`
	Tags           []Tag     `json:"tags" yaml:"tags"`
}

// Tag returns the value of the first tag named key.
func (i Instance) Tag(key string) (string, bool) {
	for _, t := range i.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

func (i Instance) Service() string {
	v, _ := i.Tag(config.DefaultTagKey)
	return v
}

func (i Instance) Environment() string {
	v, _ := i.Tag(config.EnvironmentTagKey)
	return v
}

// Address returns the private address, or the public one when the instance
// has no private address.
func (i Instance) Address() string {
	if i.PrivateAddress != "" {
		return i.PrivateAddress
	}
	return i.PublicAddress
}

// Lister queries the provider for the running instances.
type Lister interface {
	ListRunning(ctx context.Context) ([]Instance, error)
}

type Directory struct {
	lister Lister
}

func NewDirectory(lister Lister) *Directory {
	return &Directory{lister: lister}
}

// Running returns the running instances in discovery order.
//
// Authorization failures are returned and must be treated as fatal. Any
// other failure is logged and an empty list is returned with a nil error.
func (d *Directory) Running(ctx context.Context) ([]Instance, error) {
	instances, err := d.lister.ListRunning(ctx)
	if err != nil {
		if errors.Is(err, apierror.ErrNotAuthorized) {
			return nil, err
		}
		slog.Error("failed to list instances", "error", err, "code", apierror.Code(err))
		return []Instance{}, nil
	}

	if instances == nil {
		instances = []Instance{}
	}
	slog.Debug("instances listed", "count", len(instances))
	return instances, nil
}

// Services returns the distinct values of the tag key, in order of first
// appearance. Instances without the tag are skipped.
func Services(instances []Instance, key string) []string {
	services := []string{}
	seen := map[string]bool{}
	for _, inst := range instances {
		v, ok := inst.Tag(key)
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		services = append(services, v)
	}
	return services
}

// Group is the set of instances sharing one value of a tag.
type Group struct {
	Service   string
	Instances []Instance
}

// GroupByService groups the instances by value of the tag key. Groups follow
// the order of Services, instances keep their discovery order.
func GroupByService(instances []Instance, key string) []Group {
	groups := []Group{}
	for _, service := range Services(instances, key) {
		group := Group{Service: service}
		for _, inst := range instances {
			if v, ok := inst.Tag(key); ok && v == service {
				group.Instances = append(group.Instances, inst)
			}
		}
		groups = append(groups, group)
	}
	return groups
}
