package intake

import (
	"sync"

	"rigs-and-ruin/sim/internal/net/proto"
)

const (
	queueOccupancyMetricKey = "net_intake_occupancy"
	queueOverflowMetricKey  = "net_intake_overflow_total"
)

type metrics interface {
	Add(string, uint64)
	Store(string, uint64)
}

// Queue stages inbound packets in a fixed-size ring between the transport
// goroutines and the frame loop. Safe for concurrent producers and a single
// consumer; the frame loop drains it once per frame before stepping.
type Queue struct {
	mu      sync.Mutex
	data    []proto.Packet
	head    int
	tail    int
	count   int
	metrics metrics
}

// NewQueue constructs a ring with the provided capacity.
func NewQueue(capacity int, m metrics) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		data:    make([]proto.Packet, capacity),
		metrics: m,
	}
}

// Capacity reports the maximum number of packets the queue can hold.
func (q *Queue) Capacity() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Push stages a packet, returning false if the ring is full.
func (q *Queue) Push(p proto.Packet) bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.data) {
		if q.metrics != nil {
			q.metrics.Add(queueOverflowMetricKey, 1)
		}
		return false
	}
	q.data[q.tail] = p
	q.tail = (q.tail + 1) % len(q.data)
	q.count++
	q.storeOccupancyLocked()
	return true
}

// Drain returns all staged packets in FIFO order and clears the ring.
func (q *Queue) Drain() []proto.Packet {
	if q == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	packets := make([]proto.Packet, q.count)
	for i := 0; i < q.count; i++ {
		packets[i] = q.data[(q.head+i)%len(q.data)]
	}
	q.head = 0
	q.tail = 0
	q.count = 0
	q.storeOccupancyLocked()
	return packets
}

// Len reports the number of staged packets.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *Queue) storeOccupancyLocked() {
	if q.metrics != nil {
		q.metrics.Store(queueOccupancyMetricKey, uint64(q.count))
	}
}
