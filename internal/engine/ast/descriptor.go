package ast

// Descriptors describe a declaration partially. Empty strings, nil slices and
// Unspecified flags mean "not specified". Equal compares strictly, so an
// unspecified field only equals another unspecified field. Matches compares
// leniently, treating unspecified fields on either side as wildcards.

type TypeDescriptor struct {
	Kind       Kind
	Name       string
	Visibility Visibility
	Static     Flag
	Final      Flag
	Abstract   Flag
	Extends    []string
	Implements []string
}

func (d TypeDescriptor) Equal(o TypeDescriptor) bool {
	return d.Kind == o.Kind &&
		d.Name == o.Name &&
		d.Visibility == o.Visibility &&
		d.Static == o.Static &&
		d.Final == o.Final &&
		d.Abstract == o.Abstract &&
		strictSlices(d.Extends, o.Extends) &&
		strictSlices(d.Implements, o.Implements)
}

func (d TypeDescriptor) Matches(o TypeDescriptor) bool {
	return (d.Kind == KindUnspecified || o.Kind == KindUnspecified || d.Kind == o.Kind) &&
		matchString(d.Name, o.Name) &&
		matchString(string(d.Visibility), string(o.Visibility)) &&
		d.Static.Matches(o.Static) &&
		d.Final.Matches(o.Final) &&
		d.Abstract.Matches(o.Abstract) &&
		lenientSlices(d.Extends, o.Extends) &&
		lenientSlices(d.Implements, o.Implements)
}

type MethodDescriptor struct {
	Name         string
	Visibility   Visibility
	Static       Flag
	Final        Flag
	Abstract     Flag
	Synchronized Flag
	Native       Flag
	Constructor  Flag
	ReturnType   string
	Parameters   []string
	Throws       []string
}

func (d MethodDescriptor) Equal(o MethodDescriptor) bool {
	return d.Name == o.Name &&
		d.Visibility == o.Visibility &&
		d.Static == o.Static &&
		d.Final == o.Final &&
		d.Abstract == o.Abstract &&
		d.Synchronized == o.Synchronized &&
		d.Native == o.Native &&
		d.Constructor == o.Constructor &&
		d.ReturnType == o.ReturnType &&
		strictSlices(d.Parameters, o.Parameters) &&
		strictSlices(d.Throws, o.Throws)
}

func (d MethodDescriptor) Matches(o MethodDescriptor) bool {
	return matchString(d.Name, o.Name) &&
		matchString(string(d.Visibility), string(o.Visibility)) &&
		d.Static.Matches(o.Static) &&
		d.Final.Matches(o.Final) &&
		d.Abstract.Matches(o.Abstract) &&
		d.Synchronized.Matches(o.Synchronized) &&
		d.Native.Matches(o.Native) &&
		d.Constructor.Matches(o.Constructor) &&
		matchString(d.ReturnType, o.ReturnType) &&
		lenientSlices(d.Parameters, o.Parameters) &&
		lenientSlices(d.Throws, o.Throws)
}

type VariableDescriptor struct {
	Name       string
	Type       string
	Visibility Visibility
	Static     Flag
	Final      Flag
	Volatile   Flag
	Transient  Flag
}

func (d VariableDescriptor) Equal(o VariableDescriptor) bool {
	return d == o
}

func (d VariableDescriptor) Matches(o VariableDescriptor) bool {
	return matchString(d.Name, o.Name) &&
		matchString(d.Type, o.Type) &&
		matchString(string(d.Visibility), string(o.Visibility)) &&
		d.Static.Matches(o.Static) &&
		d.Final.Matches(o.Final) &&
		d.Volatile.Matches(o.Volatile) &&
		d.Transient.Matches(o.Transient)
}

// strictSlices distinguishes nil (unspecified) from empty (specified as none).
func strictSlices(a, b []string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return sameElements(a, b)
}

func lenientSlices(a, b []string) bool {
	if a == nil || b == nil {
		return true
	}
	return sameElements(a, b)
}

func sameElements(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
