// Package cffi is the foreign-function boundary described in spec §6: it
// is deliberately "trivial glue" — opaque handles over Runtime and
// Sample, built on the standard library's runtime/cgo.Handle, with every
// entry point returning a status code and every handle null-safe to
// free. No example repo in this corpus exposes a C ABI, so this layer is
// grounded only in the standard library, as the spec itself anticipates.
package cffi

import (
	"context"
	"runtime/cgo"

	"github.com/saxsrs/batchsched/internal/runtime"
	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/stage"
	"github.com/saxsrs/batchsched/internal/status"
)

// RuntimeHandle and SampleHandle are the opaque values handed across the
// boundary. They are cgo.Handle under the hood; 0 always means "null".
type RuntimeHandle uintptr
type SampleHandle uintptr

// CreateRuntime builds a Runtime with the default stage registry and
// returns an opaque handle to it.
func CreateRuntime(workerCount int, maxStages uint32) RuntimeHandle {
	rt := runtime.New(runtime.Config{WorkerCount: workerCount, MaxStages: maxStages}, stage.NewDefaultRegistry(), nil, nil, runtime.Callbacks{})
	return RuntimeHandle(cgo.NewHandle(rt))
}

// FreeRuntime releases the handle. Freeing the null handle is a no-op.
func FreeRuntime(h RuntimeHandle) {
	if h == 0 {
		return
	}
	cgo.Handle(h).Delete()
}

func lookupRuntime(h RuntimeHandle) (*runtime.Runtime, status.Code) {
	if h == 0 {
		return nil, status.NullPointer
	}
	v, ok := cgo.Handle(h).Value().(*runtime.Runtime)
	if !ok {
		return nil, status.InvalidArgument
	}
	return v, status.Ok
}

// NewSample constructs a Sample and returns an opaque handle to it.
// Returns a zero handle and the failing status code if construction
// fails (empty/invalid id, bad array lengths).
func NewSample(id string, q, intensity, intensityErr []float64) (SampleHandle, status.Code) {
	s, err := sample.New(id, q, intensity, intensityErr)
	if err != nil {
		return 0, status.CodeOf(err)
	}
	return SampleHandle(cgo.NewHandle(s)), status.Ok
}

// FreeSample releases the handle. Freeing the null handle is a no-op.
func FreeSample(h SampleHandle) {
	if h == 0 {
		return
	}
	cgo.Handle(h).Delete()
}

func lookupSample(h SampleHandle) (sample.Sample, status.Code) {
	if h == 0 {
		return sample.Sample{}, status.NullPointer
	}
	v, ok := cgo.Handle(h).Value().(sample.Sample)
	if !ok {
		return sample.Sample{}, status.InvalidArgument
	}
	return v, status.Ok
}

// AddSample transfers ownership of the sample behind sh into the runtime
// behind rh. The sample handle is consumed (freed) on success, mirroring
// the ownership transfer spec §3 describes for add_sample.
func AddSample(rh RuntimeHandle, sh SampleHandle) status.Code {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return code
	}
	s, code := lookupSample(sh)
	if code != status.Ok {
		return code
	}
	if err := rt.AddSample(s); err != nil {
		return status.CodeOf(err)
	}
	FreeSample(sh)
	return status.Ok
}

// SetCheckpoints replaces the checkpoint set on the runtime behind rh.
func SetCheckpoints(rh RuntimeHandle, stages []uint32) status.Code {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return code
	}
	if err := rt.SetCheckpoints(stages); err != nil {
		return status.CodeOf(err)
	}
	return status.Ok
}

// RunSync blocks until quiescence or cancellation.
func RunSync(rh RuntimeHandle) status.Code {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return code
	}
	return rt.RunSync(context.Background())
}

// Cancel requests cancellation of any in-progress run.
func Cancel(rh RuntimeHandle) status.Code {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return code
	}
	rt.Cancel()
	return status.Ok
}

// Reset requires the runtime to be idle.
func Reset(rh RuntimeHandle) status.Code {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return code
	}
	if err := rt.Reset(); err != nil {
		return status.CodeOf(err)
	}
	return status.Ok
}

// CompletedCount and PendingCount are the snapshot counters from spec
// §4.G. The status code is NullPointer/InvalidArgument if rh does not
// resolve; otherwise Ok.
func CompletedCount(rh RuntimeHandle) (int, status.Code) {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return 0, code
	}
	return rt.CompletedCount(), status.Ok
}

func PendingCount(rh RuntimeHandle) (int, status.Code) {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return 0, code
	}
	return rt.PendingCount(), status.Ok
}

// Regroup writes up to len(out) sample handles into out, starting at
// minStage. Returns the number written and LengthMismatch if more samples
// matched than fit in out — the ones that fit are still transferred
// (partial transfer is allowed per spec §4.G), and the surplus stays in
// the pool, retrievable by a later call with a larger buffer, rather than
// being discarded.
func Regroup(rh RuntimeHandle, minStage uint32, out []SampleHandle) (n int, code status.Code) {
	rt, code := lookupRuntime(rh)
	if code != status.Ok {
		return 0, code
	}
	samples, total := rt.RegroupLimit(minStage, len(out))
	n = len(samples)
	for i := 0; i < n; i++ {
		out[i] = SampleHandle(cgo.NewHandle(samples[i]))
	}
	if total > len(out) {
		return n, status.LengthMismatch
	}
	return n, status.Ok
}
