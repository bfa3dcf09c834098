package recorder

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scenetrace/internal/fsutil"
	"github.com/banshee-data/scenetrace/internal/pose"
	"github.com/banshee-data/scenetrace/internal/trace"
)

func TestReplay_ScenarioA(t *testing.T) {
	mfs := seedTrace(
		"0,1,pos,1.0,2.0,3.0",
		"0,1,rot,0,0,0,1",
		"1,4294967295,end",
	)
	reg := newTestRegistry(t, 1)
	e, _ := reg.Get(1)
	e.Transform.Rotation = mgl32.Quat{W: 0, V: mgl32.Vec3{1, 0, 0}}

	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(50))

	assert.Equal(t, Continue, s.Tick(50, reg))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, e.Transform.Position)
	assert.Equal(t, mgl32.QuatIdent(), e.Transform.Rotation)
	assert.True(t, s.Active())

	assert.Equal(t, Finished, s.Tick(51, reg))
	assert.False(t, s.Active())

	res := s.Result()
	assert.Equal(t, EndTerminator, res.Reason)
	assert.Equal(t, uint64(1), res.Frame)
	assert.Equal(t, 2, res.Applied)
	assert.Zero(t, res.Skipped)
}

func TestReplay_ScenarioC_DecodeErrorStopsReplay(t *testing.T) {
	mfs := seedTrace(
		"0,1,pos,1,1,1",
		"0,1,rot,0,0,0,1",
		"0,1,pos,not-a-number,2,2",
		"0,1,pos,4,4,4",
		"1,4294967295,end",
	)
	reg := newTestRegistry(t, 1)
	e, _ := reg.Get(1)

	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(0))

	assert.Equal(t, Finished, s.Tick(0, reg))
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, e.Transform.Position, "lines after the bad one must not apply")

	res := s.Result()
	assert.Equal(t, EndDecodeError, res.Reason)
	assert.Equal(t, 2, res.Applied)
	var de *trace.DecodeError
	require.True(t, errors.As(res.Err, &de))
	assert.Equal(t, 3, de.Line)
}

func TestReplay_ManyEventsPerFrameAndWaiting(t *testing.T) {
	mfs := seedTrace(
		"0,1,pos,1,0,0",
		"0,2,pos,2,0,0",
		"2,1,pos,3,0,0",
		"2,2,pos,4,0,0",
		"2,1,pos,5,0,0",
		"4,4294967295,end",
	)
	reg := newTestRegistry(t, 1, 2)
	e1, _ := reg.Get(1)
	e2, _ := reg.Get(2)
	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(7))

	assert.Equal(t, Continue, s.Tick(7, reg))
	assert.Equal(t, float32(1), e1.Transform.Position.X())
	assert.Equal(t, float32(2), e2.Transform.Position.X())

	assert.Equal(t, Continue, s.Tick(8, reg), "nothing due at relative frame 1")
	assert.Equal(t, float32(1), e1.Transform.Position.X())

	assert.Equal(t, Continue, s.Tick(9, reg))
	assert.Equal(t, float32(5), e1.Transform.Position.X(), "last event of the frame wins")
	assert.Equal(t, float32(4), e2.Transform.Position.X())

	assert.Equal(t, Continue, s.Tick(10, reg))
	assert.Equal(t, Finished, s.Tick(11, reg))
	assert.Equal(t, 5, s.Result().Applied)
}

func TestReplay_CatchesUpOnSkippedFrames(t *testing.T) {
	mfs := seedTrace(
		"0,1,pos,1,0,0",
		"1,1,pos,2,0,0",
		"2,1,pos,3,0,0",
		"9,4294967295,end",
	)
	reg := newTestRegistry(t, 1)
	e, _ := reg.Get(1)
	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(0))

	assert.Equal(t, Continue, s.Tick(2, reg))
	assert.Equal(t, float32(3), e.Transform.Position.X())
	assert.Equal(t, 3, s.Result().Applied)
}

func TestReplay_UnknownEntitySkipped(t *testing.T) {
	mfs := seedTrace(
		"0,99,pos,9,9,9",
		"0,1,pos,1,2,3",
		"0,4294967295,end",
	)
	reg := newTestRegistry(t, 1, 2)
	e1, _ := reg.Get(1)
	e2, _ := reg.Get(2)
	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(0))

	assert.Equal(t, Finished, s.Tick(0, reg))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, e1.Transform.Position)
	assert.Equal(t, mgl32.Vec3{}, e2.Transform.Position, "unrelated entity must not move")

	res := s.Result()
	assert.Equal(t, EndTerminator, res.Reason)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Skipped)
}

func TestReplay_ReservedIDSkipped(t *testing.T) {
	mfs := seedTrace(
		"0,0,pos,9,9,9",
		"0,1,pos,1,2,3",
		"1,4294967295,end",
	)
	reg := newTestRegistry(t, 1)
	e1, _ := reg.Get(1)
	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(0))

	assert.Equal(t, Continue, s.Tick(0, reg))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, e1.Transform.Position)
	assert.Equal(t, Finished, s.Tick(1, reg))

	res := s.Result()
	assert.Equal(t, EndTerminator, res.Reason)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.NoError(t, res.Err)
}

func TestReplay_EndWithoutTerminatorID(t *testing.T) {
	mfs := seedTrace(
		"0,7,end",
		"0,1,pos,1,2,3",
		"1,4294967295,end",
	)
	reg := newTestRegistry(t, 1)
	e1, _ := reg.Get(1)
	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(0))

	assert.Equal(t, Finished, s.Tick(0, reg))
	assert.Equal(t, EndDecodeError, s.Result().Reason)
	assert.Equal(t, mgl32.Vec3{}, e1.Transform.Position)
}

func TestReplay_ExhaustionWithoutTerminator(t *testing.T) {
	mfs := seedTrace("0,1,pos,1,2,3", "3,1,pos,4,5,6")
	reg := newTestRegistry(t, 1)
	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(0))

	for f := uint64(0); f < 3; f++ {
		require.Equal(t, Continue, s.Tick(f, reg), "frame %d", f)
	}
	assert.Equal(t, Finished, s.Tick(3, reg))
	assert.Equal(t, EndExhausted, s.Result().Reason)
	assert.Equal(t, 2, s.Result().Applied)
}

func TestReplay_TerminatorExactness(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		reason EndReason
	}{
		{"terminator", []string{"0,1,pos,0,0,0", "2,4294967295,end"}, EndTerminator},
		{"terminator then junk", []string{"0,4294967295,end", "garbage"}, EndTerminator},
		{"exhausted", []string{"0,1,pos,0,0,0"}, EndExhausted},
		{"empty", []string{}, EndExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := fsutil.NewMemoryFileSystem()
			var data []byte
			for _, l := range tt.lines {
				data = append(data, l+"\n"...)
			}
			mfs.WriteFile(testTracePath, data)

			reg := newTestRegistry(t, 1)
			s := NewReplaySession(mfs, testTracePath)
			require.NoError(t, s.Start(0))

			finishes := 0
			for f := uint64(0); f < 10; f++ {
				if s.Tick(f, reg) == Finished && s.Result().Reason != EndNone {
					finishes++
					break
				}
			}
			assert.Equal(t, 1, finishes)
			assert.Equal(t, tt.reason, s.Result().Reason)
			assert.Equal(t, Finished, s.Tick(11, reg), "idle session reports finished")
			assert.Equal(t, tt.reason, s.Result().Reason, "idle tick must not overwrite the result")
		})
	}
}

func TestReplay_StartWhileActiveAndStop(t *testing.T) {
	mfs := seedTrace("5,4294967295,end")
	s := NewReplaySession(mfs, testTracePath)

	require.NoError(t, s.Start(0))
	assert.ErrorIs(t, s.Start(1), ErrAlreadyActive)

	s.Stop(3)
	assert.False(t, s.Active())
	assert.Equal(t, EndStopped, s.Result().Reason)
	assert.Equal(t, uint64(3), s.Result().Frame)

	s.Stop(4)
	assert.Equal(t, uint64(3), s.Result().Frame, "Stop when idle is a no-op")

	require.NoError(t, s.Start(10), "a stopped session can start again")
}

func TestReplay_MissingTrace(t *testing.T) {
	s := NewReplaySession(fsutil.NewMemoryFileSystem(), testTracePath)
	err := s.Start(0)
	assert.Error(t, err)
	assert.False(t, s.Active())
}

// captureOrbit records frames [0, n) of the orbit scene into mfs and
// returns the per-frame snapshots taken during capture.
func captureOrbit(t *testing.T, mfs *fsutil.MemoryFileSystem, n uint64) []map[uint32]pose.Transform {
	t.Helper()
	reg := newTestRegistry(t, 1, 2, 3)
	c := NewCaptureSession(mfs, testTracePath)
	require.NoError(t, c.Start(0, reg))

	var frames []map[uint32]pose.Transform
	for f := uint64(0); f < n; f++ {
		reg.Each(func(e *pose.Entity) {
			if f%uint64(e.ID) == 0 {
				orbit(e, f)
			}
		})
		reg.Sample()
		require.NoError(t, c.Tick(f, reg))
		frames = append(frames, reg.Snapshot())
	}
	require.NoError(t, c.Stop(n))
	return frames
}

func replayFrames(t *testing.T, mfs *fsutil.MemoryFileSystem, start uint64) []map[uint32]pose.Transform {
	t.Helper()
	reg := newTestRegistry(t, 1, 2, 3)
	s := NewReplaySession(mfs, testTracePath)
	require.NoError(t, s.Start(start))

	var frames []map[uint32]pose.Transform
	for f := start; ; f++ {
		st := s.Tick(f, reg)
		if st == Finished {
			break
		}
		frames = append(frames, reg.Snapshot())
	}
	require.Equal(t, EndTerminator, s.Result().Reason)
	return frames
}

func TestReplay_ReproducesCapturedTrajectory(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	captured := captureOrbit(t, mfs, 40)

	first := replayFrames(t, mfs, 1000)
	second := replayFrames(t, mfs, 5)

	assert.Equal(t, captured, first, "replay must reproduce every captured frame")
	assert.Equal(t, first, second, "two replays must agree frame by frame")
}
