package scene

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"io/ioutil"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ecopia-map/vegetation_tiler/internal/geometry"
	"github.com/ecopia-map/vegetation_tiler/tools"
)

const (
	Magic            = "vtil"
	Version          = 1
	headerLength     = 20
	bytesPerInstance = ParamsPerInstance * 4
)

var ErrInvalidTile = errors.New("invalid tile content")

// json description of a node. Batches reference their parameters in the binary body by byte offset.
type jsonNode struct {
	Kind         Kind          `json:"kind"`
	State        *StateSet     `json:"state,omitempty"`
	Bounds       []float64     `json:"bounds,omitempty"`
	Instances    int           `json:"instances,omitempty"`
	ByteOffset   int           `json:"byteOffset,omitempty"`
	Center       []float64     `json:"center,omitempty"`
	Radius       float64       `json:"radius,omitempty"`
	Cutoff       float64       `json:"cutoff,omitempty"`
	Coarse       *jsonNode     `json:"coarse,omitempty"`
	Refined      *jsonNode     `json:"refined,omitempty"`
	File         string        `json:"file,omitempty"`
	Translation  []float64     `json:"translation,omitempty"`
	GeoReference *GeoReference `json:"geoReference,omitempty"`
	Children     []*jsonNode   `json:"children,omitempty"`
}

type encoder struct {
	body []byte
}

// Serializes the node and its resident descendants
func Encode(node Node) ([]byte, error) {
	if node == nil {
		return nil, errors.Wrap(ErrInvalidTile, "cannot encode a nil node")
	}
	e := &encoder{}
	description, err := e.encodeNode(node)
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.Marshal(description)
	if err != nil {
		return nil, errors.Wrap(err, "cannot marshal node description")
	}
	jsonBytes = tools.PadWithSpaces(jsonBytes)

	byteLength := headerLength + len(jsonBytes) + len(e.body)
	outputByte := make([]byte, 0, byteLength)
	outputByte = append(outputByte, []byte(Magic)...)                               // magic
	outputByte = append(outputByte, tools.ConvertIntToByteArray(Version)...)        // version number
	outputByte = append(outputByte, tools.ConvertIntToByteArray(byteLength)...)     // total length
	outputByte = append(outputByte, tools.ConvertIntToByteArray(len(jsonBytes))...) // json length
	outputByte = append(outputByte, tools.ConvertIntToByteArray(len(e.body))...)    // binary length
	outputByte = append(outputByte, jsonBytes...)
	outputByte = append(outputByte, e.body...)

	return outputByte, nil
}

// Serializes the node to the given writer
func Write(w io.Writer, node Node) error {
	content, err := Encode(node)
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

func (e *encoder) encodeNode(node Node) (*jsonNode, error) {
	if node == nil {
		return nil, nil
	}
	out := &jsonNode{Kind: node.Kind(), State: node.StateSet()}

	switch n := node.(type) {
	case *BatchNode:
		if len(n.Params) != n.InstanceCount*ParamsPerInstance {
			return nil, errors.Wrapf(ErrInvalidTile, "batch holds %d params for %d instances", len(n.Params), n.InstanceCount)
		}
		if n.Bounds != nil {
			out.Bounds = n.Bounds.GetAsArray()
		}
		out.Instances = n.InstanceCount
		out.ByteOffset = len(e.body)
		e.body = append(e.body, tools.ConvertFloat32ToByteArray(n.Params)...)
	case *GroupNode:
		children, err := e.encodeChildren(n.Children)
		if err != nil {
			return nil, err
		}
		out.Children = children
	case *LODNode:
		var err error
		out.Center = vectorToArray(n.Center)
		out.Radius = n.Radius
		out.Cutoff = n.Cutoff
		if out.Coarse, err = e.encodeNode(n.Coarse); err != nil {
			return nil, err
		}
		if out.Refined, err = e.encodeNode(n.Refined); err != nil {
			return nil, err
		}
	case *PagedLODNode:
		var err error
		out.Center = vectorToArray(n.Center)
		out.Radius = n.Radius
		out.Cutoff = n.Cutoff
		out.File = n.FileName
		if out.Coarse, err = e.encodeNode(n.Coarse); err != nil {
			return nil, err
		}
	case *TransformNode:
		children, err := e.encodeChildren(n.Children)
		if err != nil {
			return nil, err
		}
		out.Translation = vectorToArray(n.Translation)
		out.GeoReference = n.GeoReference
		out.Children = children
	default:
		return nil, errors.Wrapf(ErrInvalidTile, "unsupported node kind %q", node.Kind())
	}

	return out, nil
}

func (e *encoder) encodeChildren(children []Node) ([]*jsonNode, error) {
	out := make([]*jsonNode, 0, len(children))
	for _, child := range children {
		c, err := e.encodeNode(child)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// Parses content produced by Encode
func Decode(content []byte) (Node, error) {
	if len(content) < headerLength {
		return nil, errors.Wrapf(ErrInvalidTile, "content too short (%d bytes)", len(content))
	}
	if string(content[0:4]) != Magic {
		return nil, errors.Wrapf(ErrInvalidTile, "bad magic %q", content[0:4])
	}
	version := binary.LittleEndian.Uint32(content[4:8])
	if version != Version {
		return nil, errors.Wrapf(ErrInvalidTile, "unsupported version %d", version)
	}
	totalLength := int(binary.LittleEndian.Uint32(content[8:12]))
	jsonLength := int(binary.LittleEndian.Uint32(content[12:16]))
	binaryLength := int(binary.LittleEndian.Uint32(content[16:20]))
	if totalLength != len(content) || headerLength+jsonLength+binaryLength != totalLength {
		return nil, errors.Wrapf(ErrInvalidTile, "inconsistent lengths: total %d, json %d, binary %d, actual %d",
			totalLength, jsonLength, binaryLength, len(content))
	}

	var description jsonNode
	if err := json.Unmarshal(bytes.TrimRight(content[headerLength:headerLength+jsonLength], " "), &description); err != nil {
		return nil, errors.Wrap(ErrInvalidTile, err.Error())
	}

	return decodeNode(&description, content[headerLength+jsonLength:])
}

// Parses a tile from the given reader
func Read(r io.Reader) (Node, error) {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(content)
}

func decodeNode(description *jsonNode, body []byte) (Node, error) {
	if description == nil {
		return nil, nil
	}

	var node Node
	switch description.Kind {
	case KindBatch:
		start := description.ByteOffset
		end := start + description.Instances*bytesPerInstance
		if description.Instances < 0 || start < 0 || end > len(body) {
			return nil, errors.Wrapf(ErrInvalidTile, "batch params [%d, %d) out of binary body of %d bytes", start, end, len(body))
		}
		node = &BatchNode{
			Bounds:        geometry.NewBoundingBoxFromArray(description.Bounds),
			InstanceCount: description.Instances,
			Params:        tools.ConvertByteArrayToFloat32(body[start:end]),
		}
	case KindGroup:
		children, err := decodeChildren(description.Children, body)
		if err != nil {
			return nil, err
		}
		node = &GroupNode{Children: children}
	case KindLOD:
		coarse, err := decodeNode(description.Coarse, body)
		if err != nil {
			return nil, err
		}
		refined, err := decodeNode(description.Refined, body)
		if err != nil {
			return nil, err
		}
		node = &LODNode{
			Center:  arrayToVector(description.Center),
			Radius:  description.Radius,
			Cutoff:  description.Cutoff,
			Coarse:  coarse,
			Refined: refined,
		}
	case KindPagedLOD:
		if description.File == "" {
			return nil, errors.Wrap(ErrInvalidTile, "paged node without file reference")
		}
		coarse, err := decodeNode(description.Coarse, body)
		if err != nil {
			return nil, err
		}
		node = &PagedLODNode{
			Center:   arrayToVector(description.Center),
			Radius:   description.Radius,
			Cutoff:   description.Cutoff,
			Coarse:   coarse,
			FileName: description.File,
		}
	case KindTransform:
		children, err := decodeChildren(description.Children, body)
		if err != nil {
			return nil, err
		}
		node = &TransformNode{
			Translation:  arrayToVector(description.Translation),
			GeoReference: description.GeoReference,
			Children:     children,
		}
	default:
		return nil, errors.Wrapf(ErrInvalidTile, "unknown node kind %q", description.Kind)
	}

	node.SetStateSet(description.State)
	return node, nil
}

func decodeChildren(descriptions []*jsonNode, body []byte) ([]Node, error) {
	var children []Node
	for _, d := range descriptions {
		child, err := decodeNode(d, body)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func vectorToArray(v r3.Vector) []float64 {
	return []float64{v.X, v.Y, v.Z}
}

func arrayToVector(values []float64) r3.Vector {
	if len(values) != 3 {
		return r3.Vector{}
	}
	return r3.Vector{X: values[0], Y: values[1], Z: values[2]}
}
