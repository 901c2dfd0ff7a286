package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/yang/internal/dump"
)

const interfacesModule = `module interfaces {
  yang-version 1.1;
  namespace "urn:example:interfaces";
  prefix if;
  feature stats;
  container interfaces {
    list interface {
      key "name";
      leaf name { type string; }
      container statistics {
        if-feature stats;
        config false;
        leaf in-octets { type uint64; }
      }
    }
  }
}`

const ipModule = `module ip {
  namespace "urn:example:ip";
  prefix ip;
  import interfaces { prefix if; }
  augment "/if:interfaces/if:interface" {
    leaf mtu { type uint16; }
  }
}`

const brokenModule = `module broken {
  namespace "urn:example:broken";
  prefix b;
  container c { uses missing; }
}`

func modelsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o600))
	}
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := runWithArgs(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheck(t *testing.T) {
	dir := modelsDir(t, map[string]string{"interfaces.yang": interfacesModule, "ip.yang": ipModule})

	code, stdout, stderr := runCLI(t, "check", dir)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "2 modules OK\n", stdout)

	code, stdout, _ = runCLI(t, "check", filepath.Join(dir, "interfaces.yang"))
	assert.Equal(t, 0, code)
	assert.Equal(t, "1 modules OK\n", stdout)
}

func TestCheckReportsBuildFailure(t *testing.T) {
	dir := modelsDir(t, map[string]string{"broken.yang": brokenModule})

	code, stdout, stderr := runCLI(t, "check", dir)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "missing")
	assert.Contains(t, stderr, "build failed in phase EffectiveModel at source broken\n")
	assert.NotContains(t, stderr, "error:")
}

func TestCheckReportsParseFailure(t *testing.T) {
	dir := modelsDir(t, map[string]string{"bad.yang": "module bad {"})

	code, _, stderr := runCLI(t, "check", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error:")
	assert.Contains(t, stderr, "bad.yang")
}

func TestUsageErrors(t *testing.T) {
	code, _, stderr := runCLI(t, "check")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "at least one YANG file")

	code, _, _ = runCLI(t, "check", "--no-such-flag", "x.yang")
	assert.Equal(t, 2, code)

	dir := modelsDir(t, map[string]string{"interfaces.yang": interfacesModule})
	code, _, stderr = runCLI(t, "check", "--log-level", "loud", dir)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "LogLevel")

	code, _, _ = runCLI(t, "check", "--feature", "nocolon", dir)
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "dump", "--format", "xml", dir)
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "check", "--config", filepath.Join(dir, "missing.yaml"), dir)
	assert.Equal(t, 2, code)
}

func TestTree(t *testing.T) {
	dir := modelsDir(t, map[string]string{"interfaces.yang": interfacesModule, "ip.yang": ipModule})

	code, stdout, stderr := runCLI(t, "tree", dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "module: interfaces\n")
	assert.Contains(t, stdout, "+--rw interface* [name]\n")
	assert.Contains(t, stdout, "+--ro statistics {stats}?\n")
	assert.Contains(t, stdout, "+--rw ip:mtu?    uint16\n")
	assert.Contains(t, stdout, "module: ip\n")
}

func TestTreeWithFeatures(t *testing.T) {
	dir := modelsDir(t, map[string]string{"interfaces.yang": interfacesModule})

	code, stdout, _ := runCLI(t, "tree", "--feature", "interfaces:other", dir)
	require.Equal(t, 0, code)
	assert.NotContains(t, stdout, "statistics")

	code, stdout, _ = runCLI(t, "tree", "--feature", "interfaces:other", "--feature", "interfaces:stats", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "statistics")
}

func TestDump(t *testing.T) {
	dir := modelsDir(t, map[string]string{"interfaces.yang": interfacesModule})

	code, stdout, stderr := runCLI(t, "dump", "--format", "json", dir)
	require.Equal(t, 0, code, stderr)
	var doc dump.Document
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	require.Len(t, doc.Modules, 1)
	assert.Equal(t, "interfaces", doc.Modules[0].Name)
	assert.Equal(t, "urn:example:interfaces", doc.Modules[0].Namespace)
	assert.Equal(t, "if", doc.Modules[0].Prefix)

	code, stdout, _ = runCLI(t, "dump", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "name: interfaces\n")
}

func TestConfigFile(t *testing.T) {
	dir := modelsDir(t, map[string]string{"interfaces.yang": interfacesModule})
	cfgPath := filepath.Join(t.TempDir(), "lint.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: toml\nlog_level: debug\nfeatures: []\n"), 0o600))

	code, stdout, stderr := runCLI(t, "dump", "--config", cfgPath, dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "[[modules]]")
	assert.NotContains(t, stdout, "statistics")
	assert.Contains(t, stderr, "yanglint")
	assert.Contains(t, stderr, "build finished")
}
