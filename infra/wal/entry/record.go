package entry

import "fmt"

// RecordType is the kind of exchange command a record carries.
type RecordType uint8

const (
	RecordOffer RecordType = iota + 1
	RecordRequest
	RecordTrade
	RecordSettle
	RecordMatch
)

func (t RecordType) String() string {
	switch t {
	case RecordOffer:
		return "offer"
	case RecordRequest:
		return "request"
	case RecordTrade:
		return "trade"
	case RecordSettle:
		return "settle"
	case RecordMatch:
		return "match"
	default:
		return fmt.Sprintf("record(%d)", uint8(t))
	}
}

// Record is one immutable log entry. Time is the command time in unix
// nanoseconds; replay feeds it back as the exchange clock.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, unixNano int64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: unixNano,
		Data: data,
	}
}

// Frame:
// [type:1][seq:8][time:8][len:4][payload][crc:4]
const headerSize = 1 + 8 + 8 + 4
