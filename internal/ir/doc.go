// Package ir defines the command vocabulary and scene object types shared by
// every stepviz package.
//
// This package contains type definitions and the command codec only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - The command set is closed. Dispatch is an exhaustive type switch;
//     the only open branch is Unknown, produced by Decode at the string
//     boundary.
//   - Commands are values. A recorded log can be replayed any number of
//     times without aliasing.
//   - Object identity is the ID. Objects are mutated in place by the engine
//     and copied by value whenever they leave it.
package ir
