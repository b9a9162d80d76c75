package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkflowFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadForInspection(t *testing.T) {
	path := writeWorkflowFile(t, `name: inspect
nodes:
  - name: A
    agent: custom.one
  - name: B
    agent: custom.two
    fallback: custom.backup
    inputs:
      x: ${A.out}
`)

	graph, err := loadForInspection(path)
	require.NoError(t, err)
	assert.Equal(t, "inspect", graph.Name())
	assert.Equal(t, 2, graph.Len())

	order, err := graph.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
}

func TestLoadForInspection_SharedAgentName(t *testing.T) {
	// 同一 Agent 名称被多个节点引用时只注册一次
	path := writeWorkflowFile(t, `name: shared
nodes:
  - name: A
    agent: core.step
  - name: B
    agent: core.step
`)
	_, err := loadForInspection(path)
	require.NoError(t, err)
}

func TestLoadForInspection_Cycle(t *testing.T) {
	path := writeWorkflowFile(t, `name: cyclic
nodes:
  - name: A
    agent: one
    inputs:
      x: ${B.out}
  - name: B
    agent: two
    inputs:
      y: ${A.out}
`)
	_, err := loadForInspection(path)
	assert.Error(t, err)
}

func TestLoadForInspection_MissingFile(t *testing.T) {
	_, err := loadForInspection("does-not-exist.yaml")
	assert.Error(t, err)
}
