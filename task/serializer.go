package task

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Mode selects which Serializer Register builds for a task.
type Mode int

const (
	// Binary is an opaque codec (encoding/gob) that can carry arbitrary
	// registered Go types. Payloads produced by Binary are only meant to
	// be consumed by the same codebase that produced them.
	Binary Mode = iota
	// Structured is a codec (encoding/json) restricted to primitives,
	// arrays, and maps. Payloads produced by Structured are safe to cross
	// a trust boundary.
	Structured
)

// Serializer turns a task's argument value into bytes for the broker and
// back. Register selects the concrete implementation from Config.Mode.
type Serializer[A any] interface {
	Serialize(args A) ([]byte, error)
	Deserialize(data []byte) (A, error)
}

// GobSerializer is the Binary mode codec.
type GobSerializer[A any] struct{}

func (GobSerializer[A]) Serialize(args A) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(args); err != nil {
		return nil, fmt.Errorf("task: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (GobSerializer[A]) Deserialize(data []byte) (A, error) {
	var args A
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&args); err != nil {
		return args, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return args, nil
}

// JSONSerializer is the Structured mode codec.
type JSONSerializer[A any] struct{}

func (JSONSerializer[A]) Serialize(args A) ([]byte, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("task: json encode: %w", err)
	}
	return data, nil
}

func (JSONSerializer[A]) Deserialize(data []byte) (A, error) {
	var args A
	if err := json.Unmarshal(data, &args); err != nil {
		return args, fmt.Errorf("%w: %v", ErrDeserializationFailed, err)
	}
	return args, nil
}

func newSerializer[A any](mode Mode) Serializer[A] {
	if mode == Structured {
		return JSONSerializer[A]{}
	}
	return GobSerializer[A]{}
}
