package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootAndActiveSubProcessIDsOrder(t *testing.T) {
	eng := New()
	eng.AddRootProcess("root")
	eng.AddSubProcess("root", "sub1")
	eng.AddSubProcess("root", "sub2")

	ids, err := eng.RootAndActiveSubProcessIDs(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "sub1", "sub2"}, ids, "root first, then discovery order")
}

func TestRootAndActiveSubProcessIDsExcludesCompleted(t *testing.T) {
	eng := New()
	eng.AddRootProcess("root")
	eng.AddSubProcess("root", "sub1")
	eng.AddSubProcess("root", "sub2")
	eng.SetActive("sub1", false)

	ids, err := eng.RootAndActiveSubProcessIDs(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "sub2"}, ids)
}

func TestDeleteRemovesWholeTree(t *testing.T) {
	eng := New()
	eng.AddRootProcess("root")
	eng.AddSubProcess("root", "sub1")
	eng.AddExecution("sub1", "e1", false)

	require.NoError(t, eng.Delete(context.Background(), "root", "ABORTED"))

	_, err := eng.ProcessInstance(context.Background(), "root")
	assert.Error(t, err)
	_, err = eng.ProcessInstance(context.Background(), "sub1")
	assert.Error(t, err)
}
