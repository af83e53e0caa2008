package observability

import (
	"fmt"
	"time"

	"github.com/aretw0/dispatch/pkg/domain"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the serializable form of an Event. Objects, errors and values
// JSON cannot represent (NaN, funcs, channels, complex numbers) are rendered
// with their printed form, so encoding a record never fails.
type Record struct {
	ID              string         `json:"id"`
	Time            time.Time      `json:"time"`
	Kind            string         `json:"kind"`
	Target          string         `json:"target"`
	Operation       string         `json:"operation"`
	Receiver        string         `json:"receiver,omitempty"`
	Trigger         string         `json:"trigger"`
	TriggerResolved bool           `json:"trigger_resolved"`
	Args            []any          `json:"args"`
	Kwargs          map[string]any `json:"kwargs,omitempty"`
}

// NewRecord converts ev.
func NewRecord(ev domain.Event) Record {
	r := Record{
		ID:              ev.ID(),
		Time:            ev.Time(),
		Kind:            ev.Kind().String(),
		Target:          ev.TargetName(),
		Operation:       ev.Operation(),
		Trigger:         ev.Trigger().Name,
		TriggerResolved: ev.Trigger().Resolved(),
		Args:            make([]any, 0, len(ev.Args())),
	}
	if t := ev.Target(); t != nil {
		r.Receiver = t.String()
	}
	for _, a := range ev.Args() {
		r.Args = append(r.Args, plain(a))
	}
	if kw := ev.Kwargs(); len(kw) > 0 {
		r.Kwargs = make(map[string]any, len(kw))
		for k, v := range kw {
			r.Kwargs[k] = plain(v)
		}
	}
	return r
}

// Encode marshals the record of ev as JSON.
func Encode(ev domain.Event) ([]byte, error) {
	return json.Marshal(NewRecord(ev))
}

// Decode parses a record produced by Encode.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

func plain(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *domain.Object:
		return x.String()
	case error:
		return x.Error()
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}
