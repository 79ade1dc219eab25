package net

import "sort"

// ChannelStore holds the channel records of the local participant.
// Tick loop only; no locks.
type ChannelStore struct {
	channels map[uint64]*Channel
}

func NewChannelStore() *ChannelStore {
	return &ChannelStore{channels: make(map[uint64]*Channel)}
}

func (s *ChannelStore) Add(c *Channel) {
	s.channels[c.ID] = c
}

func (s *ChannelStore) Remove(id uint64) {
	delete(s.channels, id)
}

func (s *ChannelStore) Get(id uint64) *Channel {
	return s.channels[id]
}

func (s *ChannelStore) Len() int {
	return len(s.channels)
}

// ForEach visits channels in id order, so sends fan out deterministically.
func (s *ChannelStore) ForEach(fn func(*Channel)) {
	ids := make([]uint64, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(s.channels[id])
	}
}

// Open returns the open channels in id order.
func (s *ChannelStore) Open() []*Channel {
	var out []*Channel
	s.ForEach(func(c *Channel) {
		if c.IsOpen() {
			out = append(out, c)
		}
	})
	return out
}
