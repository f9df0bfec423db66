package reader

// Object is implemented by every PDF object type. The unexported
// marker keeps the set closed to this package.
type Object interface {
	pdfObject()
}

// Null is the PDF null object.
type Null struct{}

// Boolean is a PDF true/false value.
type Boolean bool

// Integer is a PDF integer.
type Integer int64

// Real is a PDF floating-point number.
type Real float64

// Name is a PDF name such as /Type or /Pages.
type Name string

// String is a PDF string, literal or hexadecimal; Value holds the
// decoded bytes either way.
type String struct {
	Value []byte
	IsHex bool
}

// Array is an ordered sequence of objects.
type Array []Object

// Dict maps names to objects.
type Dict map[Name]Object

// Stream is a dictionary with an attached body; Data is raw and may
// still be filtered.
type Stream struct {
	Dict Dict
	Data []byte
}

// Reference points at an indirect object, as in "10 0 R".
type Reference struct {
	Number     int
	Generation int
}

// IndirectObject is a numbered object definition, "N G obj ... endobj".
type IndirectObject struct {
	Reference
	Value Object
}

func (Null) pdfObject()           {}
func (Boolean) pdfObject()        {}
func (Integer) pdfObject()        {}
func (Real) pdfObject()           {}
func (Name) pdfObject()           {}
func (String) pdfObject()         {}
func (Array) pdfObject()          {}
func (Dict) pdfObject()           {}
func (Stream) pdfObject()         {}
func (Reference) pdfObject()      {}
func (IndirectObject) pdfObject() {}

// GetName returns a name entry, or "" when absent or mistyped.
func (d Dict) GetName(key Name) Name {
	n, _ := d[key].(Name)
	return n
}

// GetInt returns a numeric entry truncated to int64.
func (d Dict) GetInt(key Name) (int64, bool) {
	switch n := d[key].(type) {
	case Integer:
		return int64(n), true
	case Real:
		return int64(n), true
	}
	return 0, false
}

// GetDict returns a sub-dictionary, or nil.
func (d Dict) GetDict(key Name) Dict {
	sub, _ := d[key].(Dict)
	return sub
}

// GetArray returns an array entry, or nil.
func (d Dict) GetArray(key Name) Array {
	arr, _ := d[key].(Array)
	return arr
}
