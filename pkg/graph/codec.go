package graph

import (
	"encoding/json"
	"fmt"
)

// dataTypes maps the serialized data tag to a decoder.
var dataTypes = map[string]func(json.RawMessage) (NodeData, error){
	"box":       decodeData[BoxData],
	"cylinder":  decodeData[CylinderData],
	"transform": decodeData[TransformData],
	"group":     decodeData[GroupData],
	"origin":    decodeData[OriginData],
	"path":      decodeData[PathData],
	"profile":   decodeData[ProfileData],
	"sweep":     decodeData[SweepData],
}

func decodeData[T NodeData](raw json.RawMessage) (NodeData, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func dataTag(d NodeData) (string, error) {
	switch d.(type) {
	case BoxData:
		return "box", nil
	case CylinderData:
		return "cylinder", nil
	case TransformData:
		return "transform", nil
	case GroupData:
		return "group", nil
	case OriginData:
		return "origin", nil
	case PathData:
		return "path", nil
	case ProfileData:
		return "profile", nil
	case SweepData:
		return "sweep", nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("graph: unsupported node data %T", d)
}

// nodeAlias drops Node's methods so the codec does not recurse.
type nodeAlias Node

type nodeJSON struct {
	*nodeAlias
	DataType string          `json:"data_type,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the node with a tag naming its data payload.
func (n *Node) MarshalJSON() ([]byte, error) {
	tag, err := dataTag(n.Data)
	if err != nil {
		return nil, err
	}
	out := nodeJSON{nodeAlias: (*nodeAlias)(n), DataType: tag}
	if n.Data != nil {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("graph: node %q data: %w", n.Name, err)
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a node written by MarshalJSON.
func (n *Node) UnmarshalJSON(b []byte) error {
	in := nodeJSON{nodeAlias: (*nodeAlias)(n)}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if in.DataType == "" {
		n.Data = nil
		return nil
	}
	decode, ok := dataTypes[in.DataType]
	if !ok {
		return fmt.Errorf("graph: unknown data type %q", in.DataType)
	}
	d, err := decode(in.Data)
	if err != nil {
		return fmt.Errorf("graph: node %q %s data: %w", n.Name, in.DataType, err)
	}
	n.Data = d
	return nil
}
