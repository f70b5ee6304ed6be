package tools

import (
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

func FmtJSONString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

// Encodes the int as a little endian uint32
func ConvertIntToByteArray(value int) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(value))
	return b
}

func ConvertFloat32ToByteArray(values []float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

func ConvertByteArrayToFloat32(b []byte) []float32 {
	values := make([]float32, len(b)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return values
}

// Right pads the content with spaces up to a length multiple of 4
func PadWithSpaces(content []byte) []byte {
	if len(content)%4 == 0 {
		return content
	}
	return PadWithSpaces(append(content, ' '))
}

// Formats current/total as a percentage with one decimal digit, e.g. "12.5"
func FormatPercentage(current, total int) string {
	if total <= 0 {
		return "100.0"
	}
	return decimal.NewFromInt(int64(current)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 1).
		StringFixed(1)
}

// Formats the value with the given number of decimal digits
func FormatFixed(value float64, places int32) string {
	return decimal.NewFromFloat(value).StringFixed(places)
}
