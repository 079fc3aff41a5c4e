package sevenz

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	"github.com/vqhuy/sevenz/abi"
)

// Code is the result code of a boundary operation. The numbering is the
// engine's; see package abi.
type Code int32

const (
	CodeOk                Code = Code(abi.Ok)
	CodeFail              Code = Code(abi.Fail)
	CodeOutOfMemory       Code = Code(abi.OutOfMemory)
	CodeFileNotFound      Code = Code(abi.FileNotFound)
	CodeAccessDenied      Code = Code(abi.AccessDenied)
	CodeInvalidArgument   Code = Code(abi.InvalidArgument)
	CodeUnsupportedFormat Code = Code(abi.UnsupportedFormat)
	CodeCorruptedArchive  Code = Code(abi.CorruptedArchive)
	CodeWrongPassword     Code = Code(abi.WrongPassword)
	CodeCancelled         Code = Code(abi.Cancelled)
	CodeIndexOutOfRange   Code = Code(abi.IndexOutOfRange)
	CodeAlreadyOpen       Code = Code(abi.AlreadyOpen)
	CodeNotOpen           Code = Code(abi.NotOpen)
	CodeWriteError        Code = Code(abi.WriteError)
	CodeReadError         Code = Code(abi.ReadError)
	CodeNotImplemented    Code = Code(abi.NotImplemented)
	CodeDiskFull          Code = Code(abi.DiskFull)
	CodeInvalidState      Code = Code(abi.InvalidState)
	CodeBufferTooSmall    Code = Code(abi.BufferTooSmall)
	CodeBusy              Code = Code(abi.Busy)
)

// ErrorString returns the engine's static description for a result code.
func ErrorString(c Code) string {
	switch c {
	case CodeOk:
		return "success"
	case CodeFail:
		return "general failure"
	case CodeOutOfMemory:
		return "out of memory"
	case CodeFileNotFound:
		return "file not found"
	case CodeAccessDenied:
		return "access denied"
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeUnsupportedFormat:
		return "unsupported archive format"
	case CodeCorruptedArchive:
		return "archive is corrupted"
	case CodeWrongPassword:
		return "wrong password"
	case CodeCancelled:
		return "operation cancelled"
	case CodeIndexOutOfRange:
		return "index out of range"
	case CodeAlreadyOpen:
		return "archive already open"
	case CodeNotOpen:
		return "archive not open"
	case CodeWriteError:
		return "write error"
	case CodeReadError:
		return "read error"
	case CodeNotImplemented:
		return "feature not implemented"
	case CodeDiskFull:
		return "disk full"
	case CodeInvalidState:
		return "invalid handle state"
	case CodeBufferTooSmall:
		return "buffer too small"
	case CodeBusy:
		return "resource busy"
	default:
		return "unknown error"
	}
}

func (c Code) String() string {
	return ErrorString(c)
}

// Error is the structured failure value produced at the boundary. It always
// carries the result code; Op and Path identify the failing call, and Err is
// the underlying cause when one exists.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf(`sevenz: %s "%s": %s: %v`, e.Op, e.Path, ErrorString(e.Code), e.Err)
	case e.Path != "":
		return fmt.Sprintf(`sevenz: %s "%s": %s`, e.Op, e.Path, ErrorString(e.Code))
	case e.Err != nil:
		return fmt.Sprintf("sevenz: %s: %s: %v", e.Op, ErrorString(e.Code), e.Err)
	default:
		return fmt.Sprintf("sevenz: %s: %s", e.Op, ErrorString(e.Code))
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// CodeOf extracts the result code from err, or CodeFail when err carries none.
// A nil err maps to CodeOk.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOk
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeFail
}

// opError builds an *Error unless err already is one, in which case the
// original code and detail are kept; a non-success code crosses the boundary
// exactly once and is never re-wrapped on the way out.
func opError(code Code, op, path string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// classifyPathError maps OS-level failures onto the result taxonomy. fallback
// is used for anything without a dedicated code.
func classifyPathError(err error, fallback Code) Code {
	switch {
	case err == nil:
		return CodeOk
	case errors.Is(err, fs.ErrNotExist):
		return CodeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return CodeAccessDenied
	case errors.Is(err, syscall.ENOSPC):
		return CodeDiskFull
	default:
		return fallback
	}
}
