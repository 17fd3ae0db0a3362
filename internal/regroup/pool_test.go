package regroup

import (
	"testing"

	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/stage"
	"github.com/stretchr/testify/require"
)

func newSampleAt(t *testing.T, id string, stg uint32) sample.Sample {
	t.Helper()
	s, err := sample.New(id, []float64{1}, []float64{1}, []float64{1})
	require.NoError(t, err)
	return s.WithStage(stg)
}

func TestArrive_NoCheckpoint_TerminalRest(t *testing.T) {
	p := New()
	p.SetExpectedCount(1)
	p.AdmitSample("a")

	released := p.Arrive(newSampleAt(t, "a", 1), nil)
	require.Nil(t, released)
	require.Equal(t, 1, p.Len())
}

func TestArrive_CheckpointWaitsForAllSamples(t *testing.T) {
	p := New()
	p.SetCheckpoints([]uint32{2})
	p.SetExpectedCount(2)
	p.AdmitSample("a")
	p.AdmitSample("b")

	// A reaches stage 2 first; B is still behind at stage 1.
	p.RecordProgress("a", 2)
	p.RecordProgress("b", 1)

	released := p.Arrive(newSampleAt(t, "a", 2), []stage.ID{stage.Phase})
	require.Nil(t, released, "barrier must not release until every sample has reached stage 2")
	require.Equal(t, 1, p.Len())

	// B now catches up and arrives at the checkpoint too.
	p.RecordProgress("b", 2)
	released = p.Arrive(newSampleAt(t, "b", 2), []stage.ID{stage.Phase})
	require.Len(t, released, 2, "barrier releases both samples once the last one arrives")

	ids := map[string]bool{}
	for _, e := range released {
		ids[e.Sample.ID()] = true
		require.Equal(t, []stage.ID{stage.Phase}, e.Requests)
	}
	require.True(t, ids["a"])
	require.True(t, ids["b"])
}

func TestArrive_CheckpointReleaseSeparatesTerminalEntries(t *testing.T) {
	p := New()
	p.SetCheckpoints([]uint32{1})
	p.SetExpectedCount(2)
	p.AdmitSample("a")
	p.AdmitSample("b")
	p.RecordProgress("a", 1)
	p.RecordProgress("b", 1)

	// a has no further requests (terminal at the checkpoint); b has one.
	released := p.Arrive(newSampleAt(t, "a", 1), nil)
	require.Nil(t, released)

	released = p.Arrive(newSampleAt(t, "b", 1), []stage.ID{stage.Phase})
	require.Len(t, released, 1)
	require.Equal(t, "b", released[0].Sample.ID())

	// a stays in the pool, collectible via Regroup.
	require.Equal(t, 1, p.Len())
	collected := p.Regroup(0)
	require.Len(t, collected, 1)
	require.Equal(t, "a", collected[0].ID())
}

func TestRegroup_AscendingStageOrderFIFO(t *testing.T) {
	p := New()
	p.SetExpectedCount(3)
	p.AdmitSample("a")
	p.AdmitSample("b")
	p.AdmitSample("c")

	p.Arrive(newSampleAt(t, "a", 3), nil)
	p.Arrive(newSampleAt(t, "b", 1), nil)
	p.Arrive(newSampleAt(t, "c", 1), nil)

	out := p.Regroup(0)
	require.Len(t, out, 3)
	require.Equal(t, "b", out[0].ID())
	require.Equal(t, "c", out[1].ID())
	require.Equal(t, "a", out[2].ID())
}

func TestRegroupLimit_LeavesSurplusRetrievable(t *testing.T) {
	p := New()
	p.SetExpectedCount(3)
	p.AdmitSample("a")
	p.AdmitSample("b")
	p.AdmitSample("c")

	p.Arrive(newSampleAt(t, "a", 1), nil)
	p.Arrive(newSampleAt(t, "b", 1), nil)
	p.Arrive(newSampleAt(t, "c", 3), nil)

	out, total := p.RegroupLimit(0, 1)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].ID(), "FIFO within the lowest matching stage")
	require.Equal(t, 3, total, "total reports everything that matched, not just what fit")
	require.Equal(t, 2, p.Len(), "samples beyond the limit must remain in the pool")

	rest, total := p.RegroupLimit(0, -1)
	require.Len(t, rest, 2)
	require.Equal(t, 2, total)
	require.Equal(t, "b", rest[0].ID())
	require.Equal(t, "c", rest[1].ID())
	require.Equal(t, 0, p.Len())
}

func TestRegroupLimit_SplitsWithinAStage(t *testing.T) {
	p := New()
	p.SetExpectedCount(2)
	p.AdmitSample("a")
	p.AdmitSample("b")
	p.Arrive(newSampleAt(t, "a", 1), nil)
	p.Arrive(newSampleAt(t, "b", 1), nil)

	out, total := p.RegroupLimit(0, 1)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].ID())
	require.Equal(t, 2, total)

	rest, total := p.RegroupLimit(0, 10)
	require.Len(t, rest, 1)
	require.Equal(t, "b", rest[0].ID())
	require.Equal(t, 1, total)
}

func TestRegroup_RespectsMinStage(t *testing.T) {
	p := New()
	p.SetExpectedCount(2)
	p.AdmitSample("a")
	p.AdmitSample("b")
	p.Arrive(newSampleAt(t, "a", 0), nil)
	p.Arrive(newSampleAt(t, "b", 2), nil)

	out := p.Regroup(1)
	require.Len(t, out, 1)
	require.Equal(t, "b", out[0].ID())
	require.Equal(t, 1, p.Len(), "sample below min stage must remain")
}

func TestClear(t *testing.T) {
	p := New()
	p.SetExpectedCount(1)
	p.AdmitSample("a")
	p.Arrive(newSampleAt(t, "a", 0), nil)
	require.Equal(t, 1, p.Len())

	p.Clear()
	require.Equal(t, 0, p.Len())
}
