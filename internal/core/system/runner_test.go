package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase            { return r.phase }
func (r recorder) Update(dt time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"flush", PhaseOutput, &log})
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"sync", PhaseOutput, &log})
	r.Register(recorder{"input", PhaseInput, &log})
	r.Register(recorder{"move", PhaseUpdate, &log})

	r.Tick(600 * time.Millisecond)
	assert.Equal(t, []string{"input", "move", "flush", "sync", "cleanup"}, log)

	log = nil
	r.TickPhase(PhaseOutput, 0)
	assert.Equal(t, []string{"flush", "sync"}, log)
}
