package recorder

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/pose"
)

const testTracePath = "/traces/trace_test.csv"

// newTestRegistry registers entities with the given ids at the identity pose.
func newTestRegistry(t *testing.T, ids ...uint32) *pose.Registry {
	t.Helper()
	reg := pose.NewRegistry()
	for _, id := range ids {
		require.NoError(t, reg.Add(pose.NewEntity(id, "e", nil)))
	}
	return reg
}

// seedTrace writes lines to the test trace path of a fresh memory filesystem.
func seedTrace(lines ...string) *fsutil.MemoryFileSystem {
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile(testTracePath, []byte(strings.Join(lines, "\n")+"\n"))
	return mfs
}

// traceLines returns the non-empty lines of the test trace.
func traceLines(t *testing.T, mfs *fsutil.MemoryFileSystem) []string {
	t.Helper()
	data, err := mfs.ReadFile(testTracePath)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// orbit moves entity e along a deterministic path for frame f.
func orbit(e *pose.Entity, f uint64) {
	angle := float32(f) * 0.1 * float32(e.ID)
	e.Transform.Position = mgl32.Vec3{float32(f), float32(e.ID), -float32(f) / 2}
	e.Transform.Rotation = mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
}
