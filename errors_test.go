package sevenz

import (
	"errors"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOk, CodeOf(nil))
	assert.Equal(t, CodeFail, CodeOf(errors.New("anonymous")))
	assert.Equal(t, CodeWrongPassword, CodeOf(&Error{Code: CodeWrongPassword, Op: "open"}))

	// the code survives wrapping.
	wrapped := &Error{Code: CodeDiskFull, Op: "finalize", Err: syscall.ENOSPC}
	assert.Equal(t, CodeDiskFull, CodeOf(wrapped))
}

func TestAsError(t *testing.T) {
	e, ok := AsError(&Error{Code: CodeReadError, Op: "test archive"})
	assert.True(t, ok)
	assert.Equal(t, CodeReadError, e.Code)

	_, ok = AsError(errors.New("anonymous"))
	assert.False(t, ok)
}

func TestError_Message(t *testing.T) {
	err := &Error{Code: CodeWrongPassword, Op: "open", Path: "x.7z", Err: errors.New("hmac mismatch")}
	assert.Equal(t, `sevenz: open "x.7z": wrong password: hmac mismatch`, err.Error())

	err = &Error{Code: CodeInvalidState, Op: "extract all"}
	assert.Equal(t, "sevenz: extract all: invalid handle state", err.Error())

	assert.Equal(t, errors.New("hmac mismatch").Error(), errors.Unwrap(&Error{Err: errors.New("hmac mismatch")}).Error())
}

func TestOpError_NeverDoubleWraps(t *testing.T) {
	inner := &Error{Code: CodeWrongPassword, Op: "open", Path: "a.zip"}

	out := opError(CodeCorruptedArchive, "extract all", "b.zip", inner)
	assert.Samef(t, inner, out, "an *Error must cross the boundary unmodified")
}

func TestClassifyPathError(t *testing.T) {
	assert.Equal(t, CodeOk, classifyPathError(nil, CodeFail))
	assert.Equal(t, CodeFileNotFound, classifyPathError(fs.ErrNotExist, CodeFail))
	assert.Equal(t, CodeAccessDenied, classifyPathError(fs.ErrPermission, CodeFail))
	assert.Equal(t, CodeDiskFull, classifyPathError(syscall.ENOSPC, CodeWriteError))
	assert.Equal(t, CodeWriteError, classifyPathError(errors.New("other"), CodeWriteError))
}

func TestErrorString_CoversTaxonomy(t *testing.T) {
	for c := CodeOk; c <= CodeBusy; c++ {
		assert.NotEqualf(t, "unknown error", ErrorString(c), "ErrorString(%d)", int32(c))
	}
	assert.Equal(t, "unknown error", ErrorString(Code(999)))
}
