package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/bnema/mediaq/internal/domain"
)

var ErrUnknownNodeKind = errors.New("unknown node kind")

// LoadChain reads a chain document: a JSON array of nodes, each tagged with
// its "kind".
func LoadChain(path string) (domain.MediaChain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	chain, err := DecodeChain(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return chain, nil
}

func DecodeChain(data []byte) (domain.MediaChain, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	chain := make(domain.MediaChain, 0, len(raw))
	for i, msg := range raw {
		node, err := decodeNode(msg)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		chain = append(chain, node)
	}
	return chain, nil
}

func decodeNode(msg json.RawMessage) (domain.MediaNode, error) {
	var head struct {
		Kind domain.NodeKind `json:"kind"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return nil, err
	}

	var node domain.MediaNode
	switch head.Kind {
	case domain.NodeKindLoadMedia:
		node = &domain.LoadMediaNode{}
	case domain.NodeKindTrim:
		node = &domain.TrimNode{}
	case domain.NodeKindResize:
		node = &domain.ResizeNode{}
	case domain.NodeKindCrop:
		node = &domain.CropNode{}
	case domain.NodeKindOverlay:
		node = &domain.OverlayNode{}
	case domain.NodeKindText:
		node = &domain.TextNode{}
	case domain.NodeKindSpeed:
		node = &domain.SpeedNode{}
	case domain.NodeKindChangeFps:
		node = &domain.ChangeFpsNode{}
	case domain.NodeKindExport:
		node = &domain.ExportNode{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownNodeKind, head.Kind)
	}

	if err := json.Unmarshal(msg, node); err != nil {
		return nil, fmt.Errorf("%s: %w", head.Kind, err)
	}
	return node, nil
}

// EncodeChain is the inverse of DecodeChain.
func EncodeChain(chain domain.MediaChain) ([]byte, error) {
	out := make([]json.RawMessage, 0, len(chain))
	for i, node := range chain {
		if node == nil {
			return nil, fmt.Errorf("node %d: %w", i, domain.ErrEmptyChain)
		}
		body, err := json.Marshal(node)
		if err != nil {
			return nil, err
		}
		kind, err := json.Marshal(node.Kind())
		if err != nil {
			return nil, err
		}

		// Splice "kind" in front of the node's own fields.
		tagged := append([]byte(`{"kind":`), kind...)
		if len(body) > 2 {
			tagged = append(tagged, ',')
		}
		tagged = append(tagged, body[1:]...)
		out = append(out, tagged)
	}
	return json.MarshalIndent(out, "", "  ")
}
