package theme

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// orderedObject keeps keys in the order they first appeared.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func decodeValue(dec *json.Decoder) (any, error) {
	token, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := token.(json.Delim)
	if !ok {
		return token, nil
	}

	switch delim {
	case '{':
		obj := &orderedObject{values: make(map[string]any)}

		for dec.More() {
			keyToken, err := dec.Token()
			if err != nil {
				return nil, err
			}

			key, ok := keyToken.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyToken)
			}

			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}

			if _, seen := obj.values[key]; !seen {
				obj.keys = append(obj.keys, key)
			}

			obj.values[key] = value
		}

		_, err = dec.Token()
		if err != nil {
			return nil, err
		}

		return obj, nil
	case '[':
		arr := make([]any, 0)

		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}

			arr = append(arr, value)
		}

		_, err = dec.Token()
		if err != nil {
			return nil, err
		}

		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

func encodeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case *orderedObject:
		buf.WriteByte('{')

		for i, key := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}

			err := encodeScalar(buf, key)
			if err != nil {
				return err
			}

			buf.WriteByte(':')

			err = encodeValue(buf, v.values[key])
			if err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')

		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}

			err := encodeValue(buf, item)
			if err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	default:
		return encodeScalar(buf, v)
	}

	return nil
}

func encodeScalar(buf *bytes.Buffer, value any) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)

	err := encoder.Encode(value)
	if err != nil {
		return err
	}

	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)

	return nil
}
