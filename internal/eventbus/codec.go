package eventbus

import (
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"
)

// codec (de)serializes event payloads for transport across the gochannel
// pub/sub. goccy/go-json is used module-wide for payload encoding (see
// SPEC_FULL "Domain stack: entity payload serialization"); events are
// small structs so the same library is reused here rather than adding a
// second serialization format.
type codec struct{}

func (codec) encode(event any) ([]byte, error) {
	return json.Marshal(event)
}

// decode unmarshals payload into a freshly allocated value of the same
// concrete type as sample, returning it as the same type (not a pointer),
// so handlers can type-assert it directly against the event structs
// declared in this package.
func (codec) decode(payload []byte, sample any) (any, error) {
	t := reflect.TypeOf(sample)
	ptr := reflect.New(t)
	if err := json.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("eventbus: decode: %w", err)
	}
	return ptr.Elem().Interface(), nil
}
