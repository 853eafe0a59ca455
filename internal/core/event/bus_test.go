package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsArriveAfterSwap(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e PlayerLoggedIn) { got = append(got, "in:"+e.Name) })
	Subscribe(b, func(e PlayerLoggedOut) { got = append(got, "out:"+e.Name) })

	Emit(b, PlayerLoggedOut{Name: "b"})
	Emit(b, PlayerLoggedIn{Name: "a"})
	b.DispatchAll()
	assert.Empty(t, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"in:a", "out:b"}, got)

	got = nil
	b.SwapBuffers()
	b.DispatchAll()
	assert.Empty(t, got)
}
