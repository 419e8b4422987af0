package audit

import (
	"context"
	"sync"
)

type FakeLog struct {
	Events []Event
	lock   sync.Mutex
}

func NewFakeLog() *FakeLog {
	return &FakeLog{}
}

func (l *FakeLog) Record(ctx context.Context, event Event) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.Events = append(l.Events, event)
}

func (l *FakeLog) Outcomes() []Outcome {
	l.lock.Lock()
	defer l.lock.Unlock()
	outcomes := make([]Outcome, 0, len(l.Events))
	for _, e := range l.Events {
		outcomes = append(outcomes, e.Outcome)
	}
	return outcomes
}
