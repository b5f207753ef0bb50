package ast

import "strings"

// Flag is a tri-state boolean. Query descriptors leave most flags
// Unspecified; declarations parsed from source always set True or False.
type Flag int8

const (
	Unspecified Flag = iota
	True
	False
)

func FlagOf(b bool) Flag {
	if b {
		return True
	}
	return False
}

// ParseFlag accepts "true"/"false" (case-insensitive) and "" for Unspecified.
func ParseFlag(s string) (Flag, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Unspecified, true
	case "true", "yes", "1":
		return True, true
	case "false", "no", "0":
		return False, true
	}
	return Unspecified, false
}

func (f Flag) Specified() bool { return f != Unspecified }

// Bool reports whether the flag is True. Unspecified reads as false.
func (f Flag) Bool() bool { return f == True }

// Matches is the lenient comparison: Unspecified on either side matches anything.
func (f Flag) Matches(other Flag) bool {
	if f == Unspecified || other == Unspecified {
		return true
	}
	return f == other
}

func (f Flag) String() string {
	switch f {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unspecified"
}

type Visibility string

const (
	VisibilityUnspecified Visibility = ""
	Public                Visibility = "public"
	Protected             Visibility = "protected"
	Private               Visibility = "private"
	PackagePrivate        Visibility = "package"
)

func ParseVisibility(s string) (Visibility, bool) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case VisibilityUnspecified, Public, Protected, Private, PackagePrivate:
		return v, true
	case "package-private", "default":
		return PackagePrivate, true
	}
	return VisibilityUnspecified, false
}

func matchString(a, b string) bool {
	return a == "" || b == "" || a == b
}

// Modifiers is the full modifier set of a declaration.
type Modifiers struct {
	Visibility   Visibility
	Static       Flag
	Final        Flag
	Abstract     Flag
	Synchronized Flag
	Native       Flag
	Default      Flag
	Volatile     Flag
	Transient    Flag
}

// ParseModifiers builds a fully specified modifier set from source keywords.
// Missing visibility keywords yield PackagePrivate.
func ParseModifiers(keywords []string) Modifiers {
	m := Modifiers{
		Visibility:   PackagePrivate,
		Static:       False,
		Final:        False,
		Abstract:     False,
		Synchronized: False,
		Native:       False,
		Default:      False,
		Volatile:     False,
		Transient:    False,
	}
	for _, kw := range keywords {
		switch kw {
		case "public":
			m.Visibility = Public
		case "protected":
			m.Visibility = Protected
		case "private":
			m.Visibility = Private
		case "static":
			m.Static = True
		case "final":
			m.Final = True
		case "abstract":
			m.Abstract = True
		case "synchronized":
			m.Synchronized = True
		case "native":
			m.Native = True
		case "default":
			m.Default = True
		case "volatile":
			m.Volatile = True
		case "transient":
			m.Transient = True
		}
	}
	return m
}
