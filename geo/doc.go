// Package geo maps geodetic coordinates into a local tangent-plane
// Euclidean frame, a flat-earth approximation valid over track-sized
// distances of a few kilometers.
package geo
