package session

import (
	"github.com/aretw0/stepgrid"
	"github.com/aretw0/stepgrid/pkg/domain"
)

// subscriberBuffer is the number of diffs a subscriber may lag behind before it is dropped.
const subscriberBuffer = 256

// session is one hosted engine. Every field is guarded by the session's lockEntry.
type session struct {
	id     string
	engine *stepgrid.Engine
	last   *domain.Snapshot
	subs   map[chan *domain.SnapshotDiff]struct{}
}

func newSession(id string, eng *stepgrid.Engine) *session {
	return &session{
		id:     id,
		engine: eng,
		last:   eng.Snapshot(),
		subs:   make(map[chan *domain.SnapshotDiff]struct{}),
	}
}

// publish snapshots the engine and fans the diff against the previous snapshot out.
func (s *session) publish() *domain.Snapshot {
	snap := s.engine.Snapshot()
	if len(s.subs) > 0 {
		if diff := domain.Diff(s.last, snap); diff != nil {
			for ch := range s.subs {
				select {
				case ch <- diff:
				default:
					delete(s.subs, ch)
					close(ch)
				}
			}
		}
	}
	s.last = snap
	return snap
}

func (s *session) subscribe() chan *domain.SnapshotDiff {
	ch := make(chan *domain.SnapshotDiff, subscriberBuffer)
	ch <- domain.Diff(nil, s.last)
	s.subs[ch] = struct{}{}
	return ch
}

func (s *session) unsubscribe(ch chan *domain.SnapshotDiff) {
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *session) closeSubscribers() {
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}
