package shuffle

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"pkg.jsn.cam/friendrec/pkg/mapreduce"
)

// encodeKVs serialises one task's partition output. gob writes strings as
// raw bytes, so ids that are not valid UTF-8 survive the spill unchanged.
func encodeKVs(kvs []mapreduce.KeyValue) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(kvs); err != nil {
		return nil, fmt.Errorf("encode spill records: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeKVs(data []byte) ([]mapreduce.KeyValue, error) {
	var kvs []mapreduce.KeyValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&kvs); err != nil {
		return nil, fmt.Errorf("decode spill records: %w", err)
	}
	return kvs, nil
}
