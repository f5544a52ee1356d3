package zarr

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Dtype is a parsed NumPy array-protocol type string ("<f4", "|u1", ...).
//
// The format has three parts: a byte-order character ("<" little-endian,
// ">" big-endian, "|" not relevant), a kind character ("b" boolean,
// "i"/"u" signed/unsigned integer, "f" float, "c" complex, "S"/"U" fixed
// strings, "m"/"M" time, "V" void) and the element size in bytes.
type Dtype struct {
	ByteOrder byte
	Kind      byte
	Size      int
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

var dtypeKinds = map[byte]string{
	'b': "bool",
	'i': "int",
	'u': "uint",
	'f': "float",
	'c': "complex",
	'm': "timedelta",
	'M': "datetime",
	'S': "bytes",
	'U': "str",
	'V': "void",
}

// ParseDtype parses a NumPy typestr. Byte order is mandatory in Zarr v2.
func ParseDtype(s string) (Dtype, error) {
	if len(s) < 3 {
		return Dtype{}, fmt.Errorf("invalid dtype %q: too short", s)
	}

	dt := Dtype{ByteOrder: s[0], Kind: s[1]}
	switch dt.ByteOrder {
	case '<', '>', '|':
	default:
		return Dtype{}, fmt.Errorf("invalid dtype %q: unknown byte order %q", s, string(s[0]))
	}
	if _, ok := dtypeKinds[dt.Kind]; !ok {
		return Dtype{}, fmt.Errorf("invalid dtype %q: unknown kind %q", s, string(s[1]))
	}

	size, err := strconv.Atoi(s[2:])
	if err != nil || size <= 0 {
		return Dtype{}, fmt.Errorf("invalid dtype %q: bad item size", s)
	}
	dt.Size = size
	return dt, nil
}

// ItemSize returns the element size in bytes.
func (dt Dtype) ItemSize() int { return dt.Size }

// String returns the typestr form, e.g. "<f4".
func (dt Dtype) String() string {
	return fmt.Sprintf("%c%c%d", dt.ByteOrder, dt.Kind, dt.Size)
}

// Name returns a NumPy-style human name, e.g. "float32" or "uint8".
func (dt Dtype) Name() string {
	switch dt.Kind {
	case 'b':
		return "bool"
	case 'i':
		return fmt.Sprintf("int%d", dt.Size*8)
	case 'u':
		return fmt.Sprintf("uint%d", dt.Size*8)
	case 'f':
		return fmt.Sprintf("float%d", dt.Size*8)
	case 'c':
		return fmt.Sprintf("complex%d", dt.Size*8)
	default:
		return fmt.Sprintf("%s%d", dtypeKinds[dt.Kind], dt.Size)
	}
}

// BigEndian reports whether element bytes are stored big-endian.
func (dt Dtype) BigEndian() bool { return dt.ByteOrder == '>' }

// MarshalJSON implements json.Marshaler.
func (dt Dtype) MarshalJSON() ([]byte, error) {
	return json.Marshal(dt.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	parsed, err := ParseDtype(s)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}
