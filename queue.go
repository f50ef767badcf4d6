package wimax

// queue.go holds the MAC queue bound to each connection.  The queue is a
// FIFO of SDUs awaiting uplink transmission, filtered by MAC header type,
// and it owns all fragmentation state: once a fragmentation chain starts on
// the head SDU the queue tracks the payload already sent and the pending
// fragmentation subheader, so the scheduler stays stateless across grants

import (
	"fmt"
)

// PacketQueue is the queue capability a connection exposes to the scheduler
// and to traffic delivery.  Peeks and dequeues are header-type filtered:
// they apply to the earliest queued SDU whose header type matches
type PacketQueue interface {
	Enqueue(payloadBytes uint32, hdr HeaderType, now float64) bool
	HasPackets() bool
	HasPacketsOfType(hdr HeaderType) bool
	NumPackets() int
	QueuedBytes() uint32
	FirstRequiredBytes(hdr HeaderType) uint32
	FirstHeaderBytes(hdr HeaderType) uint32
	FragmentationInProgress(hdr HeaderType) bool
	Dequeue(hdr HeaderType) *Packet
	DequeueFragment(hdr HeaderType, capBytes uint32) *Packet
}

// queueElement describes one queued SDU.  sent records how much of the
// payload earlier fragments carried away; fragmented marks an in-progress
// fragmentation chain whose pending subheader the queue reports as part of
// the head's header cost
type queueElement struct {
	id         int
	payload    uint32
	sent       uint32
	hdr        HeaderType
	fragmented bool
	fragNum    uint8
	arrive     float64
}

// remaining gives the payload bytes of the SDU not yet carried by a fragment
func (elm *queueElement) remaining() uint32 {
	return elm.payload - elm.sent
}

// MacQueue is the PacketQueue implementation connections are created with
type MacQueue struct {
	elements []*queueElement
	limit    int // maximum number of queued SDUs, 0 means unbounded
	drops    int
}

// CreateMacQueue is a constructor.  limit bounds the number of queued SDUs,
// with 0 meaning no bound
func CreateMacQueue(limit int) *MacQueue {
	mq := new(MacQueue)
	mq.elements = make([]*queueElement, 0)
	mq.limit = limit
	return mq
}

// Enqueue appends an SDU to the queue, returning false (and counting a
// drop) when the queue is at its limit
func (mq *MacQueue) Enqueue(payloadBytes uint32, hdr HeaderType, now float64) bool {
	if mq.limit > 0 && len(mq.elements) >= mq.limit {
		mq.drops += 1
		return false
	}
	elm := new(queueElement)
	elm.id = nxtID()
	elm.payload = payloadBytes
	elm.hdr = hdr
	elm.arrive = now
	mq.elements = append(mq.elements, elm)
	return true
}

// HasPackets tells whether any SDU is queued, of any header type
func (mq *MacQueue) HasPackets() bool {
	return len(mq.elements) > 0
}

// HasPacketsOfType tells whether an SDU with the given header type is queued
func (mq *MacQueue) HasPacketsOfType(hdr HeaderType) bool {
	return mq.firstOfType(hdr) != nil
}

// NumPackets returns the number of queued SDUs
func (mq *MacQueue) NumPackets() int {
	return len(mq.elements)
}

// QueuedBytes returns the total unsent payload bytes across queued SDUs
func (mq *MacQueue) QueuedBytes() uint32 {
	var total uint32 = 0
	for _, elm := range mq.elements {
		total += elm.remaining()
	}
	return total
}

// Drops returns the number of SDUs refused because the queue was full
func (mq *MacQueue) Drops() int {
	return mq.drops
}

// firstOfType finds the earliest queued SDU with the given header type,
// returning nil if there is none
func (mq *MacQueue) firstOfType(hdr HeaderType) *queueElement {
	for _, elm := range mq.elements {
		if elm.hdr == hdr {
			return elm
		}
	}
	return nil
}

// removeElement takes an SDU out of the queue.  Called only with elements
// known to be present
func (mq *MacQueue) removeElement(elm *queueElement) {
	for idx, stored := range mq.elements {
		if stored == elm {
			mq.elements = append(mq.elements[:idx], mq.elements[idx+1:]...)
			return
		}
	}
	panic("removeElement called with SDU not in queue")
}

// FirstRequiredBytes reports the bytes needed to send the whole head SDU of
// the given header type: its unsent payload plus the MAC header cost,
// including the pending fragmentation subheader when a chain is in progress
func (mq *MacQueue) FirstRequiredBytes(hdr HeaderType) uint32 {
	elm := mq.firstOfType(hdr)
	if elm == nil {
		panic(fmt.Errorf("FirstRequiredBytes called with no queued %s SDU", hdrToStr(hdr)))
	}
	return elm.remaining() + mq.FirstHeaderBytes(hdr)
}

// FirstHeaderBytes reports the MAC header cost of the head SDU of the given
// header type.  Once a fragmentation chain is in progress the pending
// subheader is part of that cost
func (mq *MacQueue) FirstHeaderBytes(hdr HeaderType) uint32 {
	elm := mq.firstOfType(hdr)
	if elm == nil {
		panic(fmt.Errorf("FirstHeaderBytes called with no queued %s SDU", hdrToStr(hdr)))
	}
	size := hdrBytes(hdr)
	if elm.fragmented {
		size += FragSubhdrBytes
	}
	return size
}

// FragmentationInProgress tells whether the head SDU of the given header
// type is mid-way through a fragmentation chain
func (mq *MacQueue) FragmentationInProgress(hdr HeaderType) bool {
	elm := mq.firstOfType(hdr)
	if elm == nil {
		return false
	}
	return elm.fragmented
}

// Dequeue removes the head SDU of the given header type whole and returns
// it as a PDU.  When a fragmentation chain is in progress the PDU is the
// chain's final fragment and carries the fragmentation subheader.
// Dequeues are irreversible
func (mq *MacQueue) Dequeue(hdr HeaderType) *Packet {
	elm := mq.firstOfType(hdr)
	if elm == nil {
		panic(fmt.Errorf("Dequeue called with no queued %s SDU", hdrToStr(hdr)))
	}
	pckt := new(Packet)
	pckt.ID = elm.id
	pckt.Hdr = hdr
	pckt.Bytes = elm.remaining() + mq.FirstHeaderBytes(hdr)
	pckt.Fragment = elm.fragmented
	pckt.FragNum = elm.fragNum
	pckt.Arrive = elm.arrive
	mq.removeElement(elm)
	return pckt
}

// DequeueFragment removes up to capBytes of the head SDU of the given
// header type as one fragment PDU, starting a fragmentation chain if one is
// not already in progress.  The returned PDU's total length, headers
// included, never exceeds capBytes; if the cap covers the unsent payload
// the chain closes and the SDU leaves the queue
func (mq *MacQueue) DequeueFragment(hdr HeaderType, capBytes uint32) *Packet {
	elm := mq.firstOfType(hdr)
	if elm == nil {
		panic(fmt.Errorf("DequeueFragment called with no queued %s SDU", hdrToStr(hdr)))
	}

	// every fragment carries the MAC header and a fragmentation subheader
	hdrCost := hdrBytes(hdr) + FragSubhdrBytes
	if capBytes <= hdrCost {
		panic(fmt.Errorf("DequeueFragment cap %d leaves no room past the %d header bytes", capBytes, hdrCost))
	}

	take := capBytes - hdrCost
	if take >= elm.remaining() {
		// the cap covers the rest of the SDU, so this is the final fragment
		return mq.Dequeue(hdr)
	}

	pckt := new(Packet)
	pckt.ID = elm.id
	pckt.Hdr = hdr
	pckt.Bytes = take + hdrCost
	pckt.Fragment = true
	pckt.FragNum = elm.fragNum
	pckt.Arrive = elm.arrive

	elm.sent += take
	elm.fragmented = true
	elm.fragNum += 1
	return pckt
}
