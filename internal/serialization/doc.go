// Package serialization saves and loads parameter sets as SafeTensors files.
//
// Format Structure:
//
//	[8 bytes: Header Size (uint64 LE)]
//	[Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	[Tensor data: raw little-endian bytes]
//
// Layer l (1-based) is stored as two F64 tensors, "W<l>" with shape
// [n_l, n_{l-1}] and "b<l>" with shape [n_l, 1]. Tensors are written in
// alphabetical order. The "__metadata__" entry carries the layer count and a
// SHA-256 checksum of the data section, which is verified on load.
//
// Example usage:
//
//	if err := serialization.SaveParameters("model.safetensors", params, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	params, meta, err := serialization.LoadParameters("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
