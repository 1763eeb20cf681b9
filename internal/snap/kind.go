package snap

import "fmt"

// Kind identifies the geometric feature a snap locked onto. Lower values win
// distance ties.
type Kind int

const (
	Endpoint Kind = iota
	Midpoint
	Perpendicular
	Nearest
	Grid
)

var kindNames = [...]string{"endpoint", "midpoint", "perpendicular", "nearest", "grid"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind returns the kind with the given name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown snap kind %q", name)
}

// KindSet is a bit set of enabled snap kinds.
type KindSet uint8

// AllKinds enables every snap kind.
const AllKinds = KindSet(1<<Endpoint | 1<<Midpoint | 1<<Perpendicular | 1<<Nearest | 1<<Grid)

// Kinds builds a set from individual kinds.
func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// ParseKinds builds a set from kind names.
func ParseKinds(names []string) (KindSet, error) {
	var s KindSet
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return 0, err
		}
		s = s.With(k)
	}
	return s, nil
}

func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

func (s KindSet) With(k Kind) KindSet {
	return s | 1<<k
}

func (s KindSet) Without(k Kind) KindSet {
	return s &^ (1 << k)
}
