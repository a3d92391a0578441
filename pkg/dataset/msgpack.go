package dataset

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/coolbeans/votetable/pkg/votes"
)

// msgpackRecord is the wire form of a record. IDs written by other tools may
// be integers, so the ID decodes into an interface and is stringified.
type msgpackRecord struct {
	ID       interface{} `msgpack:"id"`
	Name     string      `msgpack:"name"`
	Party    string      `msgpack:"party"`
	State    string      `msgpack:"state"`
	Vote     string      `msgpack:"vote"`
	Congress int         `msgpack:"congress,omitempty"`
	Chamber  string      `msgpack:"chamber,omitempty"`
}

// WriteMsgpack writes records as a MessagePack array stream.
func WriteMsgpack(w io.Writer, records []votes.VoteRecord) error {
	encoder := msgpack.NewEncoder(w)
	if err := encoder.EncodeArrayLen(len(records)); err != nil {
		return fmt.Errorf("failed to write msgpack header: %w", err)
	}
	for index, record := range records {
		wire := msgpackRecord{
			ID:       record.ID.String(),
			Name:     record.Name,
			Party:    record.Party,
			State:    record.State,
			Vote:     record.Vote,
			Congress: record.Congress,
			Chamber:  record.Chamber,
		}
		if err := encoder.Encode(&wire); err != nil {
			return fmt.Errorf("failed to write msgpack record %d: %w", index, err)
		}
	}
	return nil
}

// ReadMsgpack reads records written by WriteMsgpack.
func ReadMsgpack(r io.Reader) ([]votes.VoteRecord, error) {
	decoder := msgpack.NewDecoder(r)
	count, err := decoder.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("failed to read msgpack header: %w", err)
	}
	if count < 0 {
		return []votes.VoteRecord{}, nil
	}

	records := make([]votes.VoteRecord, 0, count)
	for index := 0; index < count; index++ {
		var wire msgpackRecord
		if err := decoder.Decode(&wire); err != nil {
			return nil, fmt.Errorf("failed to read msgpack record %d: %w", index, err)
		}
		records = append(records, votes.VoteRecord{
			ID:       memberIDFromWire(wire.ID),
			Name:     wire.Name,
			Party:    wire.Party,
			State:    wire.State,
			Vote:     wire.Vote,
			Congress: wire.Congress,
			Chamber:  wire.Chamber,
		})
	}
	return records, nil
}

func memberIDFromWire(value interface{}) votes.MemberID {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return votes.MemberID(typed)
	case []byte:
		return votes.MemberID(typed)
	case float64:
		return votes.FloatMemberID(typed)
	case float32:
		return votes.FloatMemberID(float64(typed))
	default:
		return votes.MemberID(fmt.Sprint(typed))
	}
}
