// Package trajectory canonicalizes tool calls, compares them and derives
// reference trajectories.
//
// A canonical call drops null-valued keys and keeps integral numbers as
// integers. Two canonical calls are equal when their names match and their
// arguments match with exact numeric equality; Key orders object keys for
// hashing only.
package trajectory
