package services

// OutboundRecord is a pending publish: a body bound for exchange with
// routing_key.
type OutboundRecord struct {
	Exchange   string
	RoutingKey string
	Body       []byte
}

// PublishingBuffer is a bounded FIFO of pending publishes. Push drops
// the oldest record when full so the freshest operator-relevant alerts
// survive sustained overload; Drain attempts delivery in FIFO order and
// leaves undelivered records at the head for the next call.
type PublishingBuffer struct {
	capacity int
	records  []OutboundRecord
}

// NewPublishingBuffer returns an empty buffer bounded at capacity.
func NewPublishingBuffer(capacity int) *PublishingBuffer {
	return &PublishingBuffer{capacity: capacity}
}

// Push appends a record, dropping the oldest if the buffer is already
// at capacity.
func (b *PublishingBuffer) Push(r OutboundRecord) {
	if len(b.records) >= b.capacity {
		b.records = b.records[1:]
	}
	b.records = append(b.records, r)
}

// Len reports how many records are currently buffered.
func (b *PublishingBuffer) Len() int {
	return len(b.records)
}

// Capacity reports the buffer's fixed capacity.
func (b *PublishingBuffer) Capacity() int {
	return b.capacity
}

// Publisher is the minimal capability Drain needs: publish one body
// with confirms, returning an error on transport failure or
// not-delivered.
type Publisher interface {
	PublishOne(r OutboundRecord) error
}

// Drain attempts to publish every buffered record in order. On success
// a record is removed; on failure draining stops and the failed record
// (and everything after it) stays buffered for the next Drain call, so
// ordering is preserved.
func (b *PublishingBuffer) Drain(p Publisher) error {
	for len(b.records) > 0 {
		if err := p.PublishOne(b.records[0]); err != nil {
			return err
		}
		b.records = b.records[1:]
	}
	return nil
}
