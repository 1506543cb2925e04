// Package errors defines error types for the kernel debug SDK.
//
// This package provides structured error types that wrap different failure
// scenarios when debugging code in an execution kernel. All error types
// support error unwrapping and can be checked using errors.Is, errors.As,
// and errors.AsType.
package errors
