package services

import (
	"encoding/json"
	"fmt"
)

// wireSample is the {"current": ..., "previous": ...} shape used
// throughout the incoming result schema.
type wireSample struct {
	Current  *float64 `json:"current"`
	Previous *float64 `json:"previous"`
}

func (s wireSample) toSample() Sample {
	return Sample{Current: s.Current, Previous: s.Previous}
}

type resultMetaWire struct {
	SystemID       string  `json:"system_id"`
	SystemParentID string  `json:"system_parent_id"`
	SystemName     string  `json:"system_name"`
	LastMonitored  float64 `json:"last_monitored"`
}

type resultDataWire struct {
	OpenFileDescriptors wireSample `json:"open_file_descriptors"`
	SystemCPUUsage      wireSample `json:"system_cpu_usage"`
	SystemStorageUsage  wireSample `json:"system_storage_usage"`
	SystemRAMUsage      wireSample `json:"system_ram_usage"`
	WentDownAt          wireSample `json:"went_down_at"`
}

type resultWire struct {
	Data     resultDataWire `json:"data"`
	MetaData resultMetaWire `json:"meta_data"`
}

type errorMetaWire struct {
	Time           float64 `json:"time"`
	SystemID       string  `json:"system_id"`
	SystemParentID string  `json:"system_parent_id"`
	SystemName     string  `json:"system_name"`
}

type errorDataWire struct {
	WentDownAt wireSample `json:"went_down_at"`
}

type errorWire struct {
	Code     int           `json:"code"`
	Message  string        `json:"message"`
	MetaData errorMetaWire `json:"meta_data"`
	Data     errorDataWire `json:"data"`
}

type envelopeWire struct {
	Result *resultWire `json:"result"`
	Error  *errorWire  `json:"error"`
}

// Envelope is the decoded, discriminated form of an incoming delivery
// body: exactly one of Result or Error is populated.
type Envelope struct {
	Result *DecodedResult
	Error  *DecodedError
}

// DecodedResult is a decoded incoming result message.
type DecodedResult struct {
	Meta    ResultMeta
	Metrics ResultMetrics
}

// DecodedError is a decoded incoming error message.
type DecodedError struct {
	Code           int
	Message        string
	Time           float64
	SystemID       string
	SystemParentID string
	SystemName     string
	WentDownAt     Sample
}

// ErrUnexpectedData is returned by DecodeEnvelope when the body has
// neither a "result" nor an "error" top-level key.
var ErrUnexpectedData = fmt.Errorf("received data with neither a result nor an error key")

// DecodeEnvelope parses body into an Envelope with exactly one
// populated arm.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var w envelopeWire
	if err := json.Unmarshal(body, &w); err != nil {
		return Envelope{}, fmt.Errorf("decoding message body: %w", err)
	}

	switch {
	case w.Result != nil:
		return Envelope{Result: &DecodedResult{
			Meta: ResultMeta{
				SystemID:       w.Result.MetaData.SystemID,
				SystemParentID: w.Result.MetaData.SystemParentID,
				SystemName:     w.Result.MetaData.SystemName,
				LastMonitored:  w.Result.MetaData.LastMonitored,
			},
			Metrics: ResultMetrics{
				OpenFileDescriptors: w.Result.Data.OpenFileDescriptors.toSample(),
				SystemCPUUsage:      w.Result.Data.SystemCPUUsage.toSample(),
				SystemStorageUsage:  w.Result.Data.SystemStorageUsage.toSample(),
				SystemRAMUsage:      w.Result.Data.SystemRAMUsage.toSample(),
				WentDownAt:          w.Result.Data.WentDownAt.toSample(),
			},
		}}, nil
	case w.Error != nil:
		return Envelope{Error: &DecodedError{
			Code:           w.Error.Code,
			Message:        w.Error.Message,
			Time:           w.Error.MetaData.Time,
			SystemID:       w.Error.MetaData.SystemID,
			SystemParentID: w.Error.MetaData.SystemParentID,
			SystemName:     w.Error.MetaData.SystemName,
			WentDownAt:     w.Error.Data.WentDownAt.toSample(),
		}}, nil
	default:
		return Envelope{}, ErrUnexpectedData
	}
}
