package wimax

// packet.go holds the data structures that move between a connection's MAC
// queue and the PHY: the MAC PDU representation and the burst that carries
// an ordered group of PDUs in one uplink allocation

// HeaderType distinguishes the two MAC header formats a queued SDU may be
// sent under
type HeaderType int

const (
	HdrGeneric HeaderType = iota
	HdrBandwidthRequest
)

// hdrToStr returns the string name of a HeaderType
func hdrToStr(hdr HeaderType) string {
	switch hdr {
	case HdrGeneric:
		return "generic"
	case HdrBandwidthRequest:
		return "bandwidthRequest"
	}
	return "generic"
}

// hdrFromStr returns the HeaderType corresponding to a string name for it
func hdrFromStr(hdr string) HeaderType {
	switch hdr {
	case "bandwidthRequest", "bwreq", "BandwidthRequest":
		return HdrBandwidthRequest
	}
	return HdrGeneric
}

func (hdr HeaderType) String() string {
	return hdrToStr(hdr)
}

// MAC header sizes in bytes.  A generic MAC header or a bandwidth request
// header leads every PDU; a fragmentation subheader follows the generic
// header on every fragment of a split SDU
const (
	GenericHdrBytes   uint32 = 6
	BandwidthHdrBytes uint32 = 6
	FragSubhdrBytes   uint32 = 2
)

// hdrBytes gives the MAC header cost of sending a PDU under a header type,
// excluding any fragmentation subheader
func hdrBytes(hdr HeaderType) uint32 {
	if hdr == HdrBandwidthRequest {
		return BandwidthHdrBytes
	}
	return GenericHdrBytes
}

// Packet is one MAC PDU as it leaves a connection's queue: the SDU payload
// (or a fragment of it) together with the headers synthesized on dequeue.
// Bytes is the full on-air cost the scheduler charges against its budget
type Packet struct {
	ID       int        // unique id assigned at dequeue
	Cid      uint16     // connection the PDU travels on
	Bytes    uint32     // total PDU length, headers included
	Hdr      HeaderType // MAC header format
	Fragment bool       // true when the PDU carries a fragmentation subheader
	FragNum  uint8      // position within the fragmentation chain
	Arrive   float64    // enqueue time of the SDU, for latency reporting
}

// Burst is the ordered set of MAC PDUs handed to the PHY for a single
// uplink allocation.  Created empty and appended left to right
type Burst struct {
	Packets []*Packet
}

// createBurst is a constructor
func createBurst() *Burst {
	burst := new(Burst)
	burst.Packets = make([]*Packet, 0)
	return burst
}

// AddPacket appends a PDU to the end of the burst
func (burst *Burst) AddPacket(pckt *Packet) {
	burst.Packets = append(burst.Packets, pckt)
}

// NumPackets returns the number of PDUs in the burst
func (burst *Burst) NumPackets() int {
	return len(burst.Packets)
}

// TotalBytes returns the summed on-air length of the burst's PDUs
func (burst *Burst) TotalBytes() uint32 {
	var total uint32 = 0
	for _, pckt := range burst.Packets {
		total += pckt.Bytes
	}
	return total
}

// NumFragments returns the number of PDUs in the burst that carry a
// fragmentation subheader
func (burst *Burst) NumFragments() int {
	frags := 0
	for _, pckt := range burst.Packets {
		if pckt.Fragment {
			frags += 1
		}
	}
	return frags
}
