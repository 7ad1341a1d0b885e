package instance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/menu"
	"github.com/jackadi-io/ssmctl/internal/apierror"
	"github.com/jackadi-io/ssmctl/internal/inventory"
)

func instanceIDs(instances []inventory.Instance) []string {
	ids := make([]string, 0, len(instances))
	for _, inst := range instances {
		ids = append(ids, inst.ID)
	}
	return ids
}

type fakeLister struct {
	instances []inventory.Instance
	err       error
}

func (f *fakeLister) ListRunning(_ context.Context) ([]inventory.Instance, error) {
	return f.instances, f.err
}

func testInstances() []inventory.Instance {
	return []inventory.Instance{
		{ID: "i-web1", PrivateAddress: "10.0.0.1", Tags: []inventory.Tag{{Key: "service", Value: "web"}, {Key: "environment", Value: "prod"}}},
		{ID: "i-db1", PrivateAddress: "10.0.0.2", Tags: []inventory.Tag{{Key: "service", Value: "db"}}},
		{ID: "i-none", PublicAddress: "52.0.0.3"},
		{ID: "i-web2", PrivateAddress: "10.0.0.4", Tags: []inventory.Tag{{Key: "environment", Value: "staging"}, {Key: "service", Value: "web"}}},
	}
}

func TestListInstances(t *testing.T) {
	dir := inventory.NewDirectory(&fakeLister{instances: testInstances()})

	got, err := listInstances(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"i-web1", "i-db1", "i-none", "i-web2"}, instanceIDs(got))

	got, err = listInstances(context.Background(), dir, "tags.service==web")
	require.NoError(t, err)
	assert.Equal(t, []string{"i-web1", "i-web2"}, instanceIDs(got))

	_, err = listInstances(context.Background(), dir, "unknown==1")
	assert.Error(t, err)
}

func TestListInstancesNotAuthorized(t *testing.T) {
	dir := inventory.NewDirectory(&fakeLister{err: &apierror.NotAuthorizedError{Op: "DescribeInstances", Code: "AuthFailure"}})

	_, err := listInstances(context.Background(), dir, "")
	assert.ErrorIs(t, err, apierror.ErrNotAuthorized)
}

func TestListInstancesDegraded(t *testing.T) {
	dir := inventory.NewDirectory(&fakeLister{err: errors.New("network unreachable")})

	got, err := listInstances(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPrettyInstanceListSprint(t *testing.T) {
	out := prettyInstanceListSprint(testInstances(), "service")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "one line per instance")

	expected := [][]string{
		{"i-web1", "web", "prod", "10.0.0.1"},
		{"i-db1", "db", "-", "10.0.0.2"},
		{"i-none", "-", "-", "52.0.0.3"},
		{"i-web2", "web", "staging", "10.0.0.4"},
	}
	got := [][]string{}
	for _, line := range lines {
		got = append(got, strings.Fields(line))
	}
	if diff := cmp.Diff(got, expected); diff != "" {
		t.Errorf("Mismatch (-got +want):\n%s", diff)
	}
}

func TestPrettyInstanceListSprintEmpty(t *testing.T) {
	assert.Contains(t, prettyInstanceListSprint(nil, "service"), "no running instance")
}

func TestBuildMenu(t *testing.T) {
	m, err := buildMenu(testInstances(), "service", "")
	require.NoError(t, err)

	expected := []menu.Section{
		{Title: "web", Items: []menu.Item{{Label: "i-web1 - web", Value: "i-web1"}, {Label: "i-web2 - web", Value: "i-web2"}}},
		{Title: "db", Items: []menu.Item{{Label: "i-db1 - db", Value: "i-db1"}}},
	}
	if diff := cmp.Diff(m.Sections, expected); diff != "" {
		t.Errorf("Mismatch (-got +want):\n%s", diff)
	}
}

func TestBuildMenuService(t *testing.T) {
	m, err := buildMenu(testInstances(), "service", "db")
	require.NoError(t, err)
	require.Len(t, m.Sections, 1)
	assert.Equal(t, "db", m.Sections[0].Title)

	_, err = buildMenu(testInstances(), "service", "cache")
	assert.ErrorContains(t, err, "service=cache")
}

func TestBuildMenuEmpty(t *testing.T) {
	_, err := buildMenu([]inventory.Instance{{ID: "i-none"}}, "service", "")
	assert.ErrorIs(t, err, ErrNoInstance)
}
