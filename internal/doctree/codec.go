package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMsgpack serialises the tree rooted at n.
func EncodeMsgpack(w io.Writer, n *Node) error {
	enc := msgpack.NewEncoder(w)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("doctree: encode: %w", err)
	}
	return nil
}

// MarshalMsgpack returns the msgpack encoding of the tree.
func MarshalMsgpack(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeMsgpack(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack reads a tree and restores its parent links.
func DecodeMsgpack(r io.Reader) (*Node, error) {
	var n Node
	if err := msgpack.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("doctree: decode: %w", err)
	}
	n.Relink()
	return &n, nil
}

// WriteJSON writes an indented JSON rendering of the tree.
func WriteJSON(w io.Writer, n *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(n)
}

// ReadJSON parses a JSON rendering and restores parent links.
func ReadJSON(r io.Reader) (*Node, error) {
	var n Node
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("doctree: decode json: %w", err)
	}
	n.Relink()
	return &n, nil
}
