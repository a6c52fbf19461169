package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/born-ml/deepnet/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Reserved metadata keys.
const (
	MetaFormat   = "format"
	MetaLayers   = "layers"
	MetaChecksum = "sha256"

	formatName = "deepnet"
	metaKey    = "__metadata__"
	dtypeF64   = "F64"
)

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

func weightName(l int) string { return "W" + strconv.Itoa(l) }
func biasName(l int) string   { return "b" + strconv.Itoa(l) }

// SaveParameters writes params to a SafeTensors file at path.
func SaveParameters(path string, params *nn.Parameters, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteParameters(file, params, metadata); err != nil {
		_ = file.Close() // Best effort close on error
		return err
	}
	return file.Close()
}

// WriteParameters writes params to w in SafeTensors format.
//
// metadata is copied into the header; the format, layers and sha256 keys are
// reserved and overwritten.
func WriteParameters(w io.Writer, params *nn.Parameters, metadata map[string]string) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("serialization: %w", err)
	}

	stateDict := make(map[string]*mat.Dense, 2*params.NumLayers())
	for l := 1; l <= params.NumLayers(); l++ {
		lp := params.Layer(l)
		stateDict[weightName(l)] = lp.W
		stateDict[biasName(l)] = lp.B
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	var data []byte
	for _, name := range names {
		m := stateDict[name]
		r, c := m.Dims()

		start := int64(len(data))
		data = appendFloat64s(data, m)
		header[name] = SafeTensorHeader{
			DType:       dtypeF64,
			Shape:       []int64{int64(r), int64(c)},
			DataOffsets: [2]int64{start, int64(len(data))},
		}
	}

	meta := make(map[string]string, len(metadata)+3)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[MetaFormat] = formatName
	meta[MetaLayers] = strconv.Itoa(params.NumLayers())
	meta[MetaChecksum] = ComputeChecksum(data)
	header[metaKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}

// appendFloat64s appends m row-major as little-endian float64 bytes.
func appendFloat64s(dst []byte, m *mat.Dense) []byte {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i)[:c] {
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
		}
	}
	return dst
}
