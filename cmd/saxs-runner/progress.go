package main

import (
	"fmt"
	"sync"

	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/stage"
	"github.com/saxsrs/batchsched/internal/status"
)

// progressReporter prints stage transitions and terminal sample outcomes
// to stdout, generalized from the teacher's ProgressReporter (text mode
// only — json/tui modes are left for a future CLI surface).
type progressReporter struct {
	mu        sync.Mutex
	total     int
	failed    int
	succeeded int
}

func newProgressReporter(total int) *progressReporter {
	return &progressReporter{total: total}
}

func (p *progressReporter) onProgress(id stage.ID, completed, total int) {
	fmt.Printf("[progress] stage=%s completed=%d/%d\n", id, completed, total)
}

func (p *progressReporter) onSample(s sample.Sample, code status.Code) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if code == status.Ok {
		p.succeeded++
	} else {
		p.failed++
	}
	fmt.Printf("[sample] id=%s status=%s stage=%d\n", s.ID(), code, s.Stage())
}

func (p *progressReporter) reportFinal(code status.Code) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("[done] status=%s succeeded=%d failed=%d total=%d\n", code, p.succeeded, p.failed, p.total)
}
