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

// SafeTensorsHeader is the parsed JSON header of a SafeTensors file.
type SafeTensorsHeader struct {
	Metadata map[string]string
	Tensors  map[string]SafeTensorHeader
}

// UnmarshalJSON splits the "__metadata__" entry from the tensor entries.
func (h *SafeTensorsHeader) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap[metaKey]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	h.Tensors = make(map[string]SafeTensorHeader, len(rawMap))
	for key, value := range rawMap {
		if key == metaKey {
			continue
		}
		var info SafeTensorHeader
		if err := json.Unmarshal(value, &info); err != nil {
			return fmt.Errorf("failed to unmarshal tensor %s: %w", key, err)
		}
		h.Tensors[key] = info
	}

	return nil
}

// LoadParameters reads a parameter set from the SafeTensors file at path.
func LoadParameters(path string) (*nn.Parameters, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return ReadParameters(file)
}

// ReadParameters reads a parameter set written by WriteParameters.
//
// Returns the parameters and the header metadata. Fails if the header is
// malformed, the checksum does not match, a layer tensor is missing or the
// result does not form a valid network.
func ReadParameters(r io.Reader) (*nn.Parameters, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var header SafeTensorsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if sum, ok := header.Metadata[MetaChecksum]; ok {
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, nil, err
		}
	}

	if err := validateHeader(&header, int64(len(data))); err != nil {
		return nil, nil, err
	}

	numLayers := 0
	for header.Tensors[weightName(numLayers+1)].DType != "" {
		numLayers++
	}

	layers := make([]nn.LayerParams, numLayers)
	for l := 1; l <= numLayers; l++ {
		w, err := decodeTensor(&header, data, weightName(l))
		if err != nil {
			return nil, nil, err
		}
		b, err := decodeTensor(&header, data, biasName(l))
		if err != nil {
			return nil, nil, err
		}
		layers[l-1] = nn.LayerParams{W: w, B: b}
	}

	if len(header.Tensors) != 2*numLayers {
		return nil, nil, unexpectedTensor(&header, numLayers)
	}

	if want, ok := header.Metadata[MetaLayers]; ok && want != strconv.Itoa(numLayers) {
		return nil, nil, fmt.Errorf("%w: header declares %s layers, found %d", ErrMissingTensor, want, numLayers)
	}

	params := nn.NewParameters(layers...)
	if err := params.Validate(); err != nil {
		return nil, nil, fmt.Errorf("serialization: %w", err)
	}

	return params, header.Metadata, nil
}

func validateHeader(h *SafeTensorsHeader, dataSize int64) error {
	metas := make([]TensorMeta, 0, len(h.Tensors))
	for name, info := range h.Tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if info.DType != dtypeF64 {
			return fmt.Errorf("%w: tensor %q has dtype %q", ErrUnsupportedDType, name, info.DType)
		}
		metas = append(metas, TensorMeta{
			Name:   name,
			Offset: info.DataOffsets[0],
			Size:   info.DataOffsets[1] - info.DataOffsets[0],
		})
	}
	return ValidateTensorOffsets(metas, dataSize)
}

// decodeTensor builds a matrix from a 2-D F64 tensor of the data section.
func decodeTensor(h *SafeTensorsHeader, data []byte, name string) (*mat.Dense, error) {
	info, ok := h.Tensors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingTensor, name)
	}
	if len(info.Shape) != 2 || info.Shape[0] < 1 || info.Shape[1] < 1 {
		return nil, &ValidationError{
			Type:    "invalid_shape",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v is not a non-empty matrix", info.Shape),
		}
	}

	rows, cols := info.Shape[0], info.Shape[1]
	start, end := info.DataOffsets[0], info.DataOffsets[1]
	size := end - start
	// Divide rather than multiply so a huge shape cannot overflow.
	n := size / 8
	if size%8 != 0 || rows > n || cols > n/rows || rows*cols != n {
		return nil, &ValidationError{
			Type:    "size_mismatch",
			Tensor:  name,
			Details: fmt.Sprintf("%d bytes for shape %v", size, info.Shape),
		}
	}

	raw := data[start:end]
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return mat.NewDense(int(rows), int(cols), values), nil
}

// unexpectedTensor reports the first tensor, in name order, that is not one
// of W1..WL, b1..bL.
func unexpectedTensor(h *SafeTensorsHeader, numLayers int) error {
	names := make([]string, 0, len(h.Tensors))
	for name := range h.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		known := false
		for l := 1; l <= numLayers; l++ {
			if name == weightName(l) || name == biasName(l) {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %q after %d layers", ErrUnexpectedTensor, name, numLayers)
		}
	}
	return fmt.Errorf("%w: %d tensors for %d layers", ErrUnexpectedTensor, len(names), numLayers)
}
