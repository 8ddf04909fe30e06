// Package track represents a race track centerline as a closed polyline
// in the local tangent-plane frame and answers nearest-point queries
// against it: given a raw vehicle position, where on the track is it and
// which way is the track heading there (track-locking).
//
// The locate scan is O(N) over the centerline segments per call, which is
// fine for centerlines of a few hundred points at per-vehicle-per-poll
// volume; it does not scale to very dense sampling or very high vehicle
// counts.
//
// Heading follows the rendering convention: atan2(dx, dz), measured from
// the north axis, increasing clockwise.
package track
