// Package cags loads layered CAGS point-cloud assets and converts them into
// ordered splat records.
//
// An asset is a base quantized layer (one codebook, one Draco codes file)
// plus, per attribute, a fixed number of enhancement layers each made of a
// codebook and a codes file. The Manifest says how many enhancement layers
// each attribute has; the LayerLoader walks it in a fixed order, handing each
// payload to a DecodeEngine, and the Converter turns the engine's dequantized
// buffers into splat.Records.
//
// Decoding itself is delegated: any DecodeEngine implementation can be
// plugged in through RegisterEngine.
package cags
