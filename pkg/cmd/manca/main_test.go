package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/manca/pkg/manca"
	"github.com/gilchrisn/manca/pkg/netio"
)

const trianglesEdgeList = `a b 1
b c 1
a c 1
d e 1
e f 1
d f 1
c d 1
`

func TestRunEdgeList(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "network.txt")
	output := filepath.Join(dir, "labelled.txt")
	report := filepath.Join(dir, "report.yaml")
	require.NoError(t, os.WriteFile(input, []byte(trianglesEdgeList), 0644))

	err := run([]string{
		"-i", input, "-o", output,
		"--seed", "11", "--iterations", "40", "--limit", "5",
		"--log-level", "disabled", "--report", report,
	})
	require.NoError(t, err)

	mapping, err := os.ReadFile(netio.MappingPath(output))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(mapping)), "\n"), 6)

	file, err := os.Open(report)
	require.NoError(t, err)
	defer file.Close()
	rep, err := netio.ReadReport(file)
	require.NoError(t, err)
	assert.Equal(t, int64(11), rep.Parameters.RandomSeed)
	assert.Equal(t, 40, rep.Parameters.Iterations)
	assert.LessOrEqual(t, rep.Result.Iterations, 40)
}

func TestRunDOTWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "network.gv")
	output := filepath.Join(dir, "labelled.dot")
	config := filepath.Join(dir, "manca.yaml")

	require.NoError(t, os.WriteFile(input, []byte(`graph { a -- b [weight=1]; b -- c [weight=1]; }`), 0644))
	require.NoError(t, os.WriteFile(config, []byte("algorithm:\n  iterations: 5\n  random_seed: 3\nlogging:\n  level: disabled\noutput:\n  label_attribute: community\n"), 0644))

	require.NoError(t, run([]string{"-i", input, "-o", output, "-f", "dot", "--config", config}))

	net, err := netio.ReadFile(output, netio.FormatDOT)
	require.NoError(t, err)
	_, ok := net.Attribute("a", "community")
	assert.True(t, ok)
}

func TestRunArgumentErrors(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "network.txt")
	require.NoError(t, os.WriteFile(input, []byte(trianglesEdgeList), 0644))

	tests := []struct {
		name string
		args []string
	}{
		{"MissingOutput", []string{"-i", input}},
		{"UnknownFormat", []string{"-i", input, "-o", filepath.Join(dir, "o.txt"), "-f", "graphml"}},
		{"InvalidLimit", []string{"-i", input, "-o", filepath.Join(dir, "o.txt"), "--limit", "0"}},
		{"MissingInput", []string{"-i", filepath.Join(dir, "absent.txt"), "-o", filepath.Join(dir, "o.txt")}},
		{"UnknownFlag", []string{"--bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, run(tt.args))
		})
	}
}

func TestBindFlagsOverridesConfig(t *testing.T) {
	config := manca.NewConfig()
	flags, _ := newFlagSet(config)
	require.NoError(t, flags.Parse([]string{"--max-clusters", "9", "--seed", "123"}))
	require.NoError(t, bindFlags(config, flags))

	assert.Equal(t, 9, config.MaxClusters())
	assert.Equal(t, int64(123), config.RandomSeed())
	assert.Equal(t, 3, config.DiffusionRange(), "unchanged flags keep the config value")
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	manca.NewMetrics(reg)
	server := httptest.NewServer(newRouter(reg))
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "manca_rounds_total")

	resp, err = http.Post(server.URL+"/healthz", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
