package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEmitDeliversToEveryHandler(t *testing.T) {
	bus := NewEventBus()

	var wg sync.WaitGroup
	wg.Add(2)
	got := make(chan interface{}, 2)
	for i := 0; i < 2; i++ {
		bus.On(RoleAssigned, func(data interface{}) {
			defer wg.Done()
			got <- data
		})
	}

	bus.Emit(RoleAssigned, "user-1")
	wg.Wait()
	close(got)

	for data := range got {
		assert.Equal(t, "user-1", data)
	}
}

func TestEmitSurvivesPanickingHandler(t *testing.T) {
	bus := NewEventBus()
	done := make(chan struct{})

	bus.On(UserDeleted, func(interface{}) { panic("boom") })
	bus.On(UserDeleted, func(interface{}) { close(done) })

	bus.Emit(UserDeleted, nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler never ran")
	}
}

func TestEmitWithoutHandlersIsNoop(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() { bus.Emit("nobody.listens", 1) })
}
