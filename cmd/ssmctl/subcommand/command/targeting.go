package command

import (
	"fmt"

	"github.com/jackadi-io/ssmctl/internal/target"
)

type Targeting struct {
	Instances     string
	InstancesFile string
	TagValue      string
}

// Spec merges the explicit instances, the instances file and the tag filter.
func (t Targeting) Spec(tagKey string) (target.Spec, error) {
	spec := target.Parse(t.Instances, tagKey, t.TagValue)

	if t.InstancesFile != "" {
		ids, err := target.FromFile(t.InstancesFile)
		if err != nil {
			return target.Spec{}, fmt.Errorf("failed to read instances file: %w", err)
		}
		spec = spec.WithInstances(ids...)
	}

	if err := spec.Validate(); err != nil {
		return target.Spec{}, err
	}
	return spec, nil
}
