// Package splat holds the renderer-facing splat record model and the buffer
// finalizer that packs an ordered record array into sections and buckets.
//
// A Record is one Gaussian splat: centre, anisotropic scale, orientation,
// 8-bit colour and 8-bit opacity, plus optional higher-order spherical
// harmonic coefficients. Record order inside an Array is the point identity
// the renderer uses, so nothing in this package reorders an Array in place;
// the Generator copies records into sections instead.
package splat
