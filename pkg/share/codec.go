package share

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrDecode is wrapped by every codec failure that comes from decoding input
var ErrDecode = errors.New("share: decode failed")

func encodeJSON[T any](v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode failed: %w", err)
	}
	return data, nil
}

func decodeJSON[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, fmt.Errorf("%w: empty json input", ErrDecode)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: json: %w", ErrDecode, err)
	}
	return v, nil
}

func decodeYAML[T any](node *yaml.Node) (T, error) {
	var v T
	if err := node.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: yaml: %w", ErrDecode, err)
	}
	return v, nil
}

// ToJSON encodes the current value of c
func ToJSON[T any](c Cell[T]) ([]byte, error) {
	return encodeJSON(c.Get())
}

// FromJSON decodes data and stores it in c. c is left untouched on error.
func FromJSON[T any](c Cell[T], data []byte) error {
	v, err := decodeJSON[T](data)
	if err != nil {
		return err
	}
	c.Set(v)
	return nil
}

// ToYAML encodes the current value of c
func ToYAML[T any](c Cell[T]) ([]byte, error) {
	data, err := yaml.Marshal(c.Get())
	if err != nil {
		return nil, fmt.Errorf("yaml encode failed: %w", err)
	}
	return data, nil
}

// FromYAML decodes data and stores it in c. c is left untouched on error.
func FromYAML[T any](c Cell[T], data []byte) error {
	var v T
	if err := yaml.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: yaml: %w", ErrDecode, err)
	}
	c.Set(v)
	return nil
}

// The Marshal/Unmarshal methods below make cells usable as fields of
// encoded structs. Unmarshalling into a zero cell initializes it.

func (c *LockedCell[T]) MarshalJSON() ([]byte, error) { return encodeJSON(c.Get()) }

func (c *LockedCell[T]) UnmarshalJSON(data []byte) error {
	v, err := decodeJSON[T](data)
	if err != nil {
		return err
	}
	c.store(v)
	return nil
}

func (c *LockedCell[T]) MarshalYAML() (interface{}, error) { return c.Get(), nil }

func (c *LockedCell[T]) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeYAML[T](node)
	if err != nil {
		return err
	}
	c.store(v)
	return nil
}

func (c *LockedCell[T]) store(v T) {
	if c.g == nil {
		c.g = newGuarded(v, defaultOptions())
		return
	}
	c.Set(v)
}

func (c *SimpleCell[T]) MarshalJSON() ([]byte, error) { return encodeJSON(c.Get()) }

func (c *SimpleCell[T]) UnmarshalJSON(data []byte) error {
	v, err := decodeJSON[T](data)
	if err != nil {
		return err
	}
	c.store(v)
	return nil
}

func (c *SimpleCell[T]) MarshalYAML() (interface{}, error) { return c.Get(), nil }

func (c *SimpleCell[T]) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeYAML[T](node)
	if err != nil {
		return err
	}
	c.store(v)
	return nil
}

func (c *SimpleCell[T]) store(v T) {
	if c.s == nil {
		*c = *NewSimple(v)
		return
	}
	c.Set(v)
}

func (c *AtomicCell[T]) MarshalJSON() ([]byte, error) { return encodeJSON(c.Get()) }

func (c *AtomicCell[T]) UnmarshalJSON(data []byte) error {
	v, err := decodeJSON[T](data)
	if err != nil {
		return err
	}
	c.store(v)
	return nil
}

func (c *AtomicCell[T]) MarshalYAML() (interface{}, error) { return c.Get(), nil }

func (c *AtomicCell[T]) UnmarshalYAML(node *yaml.Node) error {
	v, err := decodeYAML[T](node)
	if err != nil {
		return err
	}
	c.store(v)
	return nil
}

func (c *AtomicCell[T]) store(v T) {
	if c.ptr == nil {
		*c = *NewAtomic(v)
		return
	}
	c.Set(v)
}

func (c *LockedZeroCopyCell[T]) MarshalJSON() ([]byte, error) { return encodeJSON(c.Get()) }

func (c *LockedZeroCopyCell[T]) MarshalYAML() (interface{}, error) { return c.Get(), nil }

// UnmarshalJSON stores the decoded value through the shared lock. A zero
// LockedZeroCopyCell has no origin and cannot be decoded into.
func (c *LockedZeroCopyCell[T]) UnmarshalJSON(data []byte) error {
	if c.g == nil {
		return fmt.Errorf("%w: zero-copy cell has no origin", ErrDecode)
	}
	return FromJSON[T](c, data)
}

// UnmarshalYAML follows UnmarshalJSON: the zero view has nothing to write to.
func (c *LockedZeroCopyCell[T]) UnmarshalYAML(node *yaml.Node) error {
	if c.g == nil {
		return fmt.Errorf("%w: zero-copy cell has no origin", ErrDecode)
	}
	v, err := decodeYAML[T](node)
	if err != nil {
		return err
	}
	c.Set(v)
	return nil
}
