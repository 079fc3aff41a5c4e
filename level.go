package sevenz

import (
	"fmt"
	"strings"

	"github.com/vqhuy/sevenz/abi"
)

// Level is the compression level passed through to the engine. Only the five
// named ordinals are accepted by the writer.
type Level int32

const (
	// LevelNone stores entries without compression.
	LevelNone    Level = Level(abi.LevelNone)
	LevelFast    Level = Level(abi.LevelFast)
	LevelNormal  Level = Level(abi.LevelNormal)
	LevelMaximum Level = Level(abi.LevelMaximum)
	LevelUltra   Level = Level(abi.LevelUltra)
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelFast:
		return "fast"
	case LevelNormal:
		return "normal"
	case LevelMaximum:
		return "maximum"
	case LevelUltra:
		return "ultra"
	default:
		return fmt.Sprintf("level(%d)", int32(l))
	}
}

func (l Level) valid() bool {
	switch l {
	case LevelNone, LevelFast, LevelNormal, LevelMaximum, LevelUltra:
		return true
	default:
		return false
	}
}

// ParseLevel resolves a level name. Returns an InvalidArgument error for
// unknown names.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "none", "store", "0":
		return LevelNone, nil
	case "fast", "fastest", "1":
		return LevelFast, nil
	case "normal", "", "5":
		return LevelNormal, nil
	case "maximum", "max", "7":
		return LevelMaximum, nil
	case "ultra", "9":
		return LevelUltra, nil
	default:
		return LevelNormal, &Error{Code: CodeInvalidArgument, Op: "parse level", Path: name}
	}
}
