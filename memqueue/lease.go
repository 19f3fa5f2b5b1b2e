package memqueue

// leaseHeap orders in-flight messages by lease expiry, then by enqueue order.
// It implements heap.Interface.
type leaseHeap []*Message

func (h leaseHeap) Len() int { return len(h) }

func (h leaseHeap) Less(i, j int) bool {
	if h[i].LeaseExpiresAt.Equal(h[j].LeaseExpiresAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].LeaseExpiresAt.Before(h[j].LeaseExpiresAt)
}

func (h leaseHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *leaseHeap) Push(x any) {
	msg, _ := x.(*Message) //nolint:errcheck // only *Message is pushed
	msg.heapIndex = len(*h)
	*h = append(*h, msg)
}

func (h *leaseHeap) Pop() any {
	old := *h
	n := len(old)
	msg := old[n-1]
	old[n-1] = nil
	msg.heapIndex = -1
	*h = old[:n-1]
	return msg
}

// peek returns the message whose lease expires first, or nil.
func (h leaseHeap) peek() *Message {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
