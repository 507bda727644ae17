package paragraph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/raqmgo/ot"
	"github.com/npillmayer/raqmgo/otshape"
)

// parseFeatureString parses one OpenType feature toggle in the shaper's
// textual grammar:
//
//	tag            on, default value
//	+tag           on, default value
//	-tag           off
//	tag=value      on if value != 0, off otherwise, with that value
//	tag[start:end]        on, restricted to the code-point range [start,end)
//	tag[start:end]=value  combination of the above
//
// start or end may be omitted (e.g. "kern[:5]" or "kern[3:]") to mean start
// or end of run respectively, matching [otshape.FeatureRange]'s own
// zero-means-unbounded convention.
func parseFeatureString(s string) (otshape.FeatureRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return otshape.FeatureRange{}, errors.New("empty feature string")
	}

	on := true
	switch {
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		s = s[1:]
		on = false
	}

	tagPart := s
	start, end := 0, 0
	if lb := strings.IndexByte(s, '['); lb >= 0 {
		rb := strings.IndexByte(s, ']')
		if rb < lb {
			return otshape.FeatureRange{}, fmt.Errorf("unterminated range in feature %q", s)
		}
		tagPart = s[:lb] + s[rb+1:]
		rangePart := s[lb+1 : rb]
		var err error
		start, end, err = parseFeatureRange(rangePart)
		if err != nil {
			return otshape.FeatureRange{}, fmt.Errorf("invalid range in feature %q: %w", s, err)
		}
	}

	arg := 1
	if eq := strings.IndexByte(tagPart, '='); eq >= 0 {
		v := strings.TrimSpace(tagPart[eq+1:])
		tagPart = tagPart[:eq]
		if v == "" {
			return otshape.FeatureRange{}, fmt.Errorf("empty feature value in %q", s)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return otshape.FeatureRange{}, fmt.Errorf("invalid feature value in %q: %w", s, err)
		}
		arg = n
		on = n != 0
	}

	tagPart = strings.TrimSpace(tagPart)
	if len(tagPart) != 4 {
		return otshape.FeatureRange{}, fmt.Errorf("feature tag %q is not 4 characters", tagPart)
	}
	return otshape.FeatureRange{
		Feature: ot.T(tagPart),
		Arg:     arg,
		On:      on,
		Start:   start,
		End:     end,
	}, nil
}

func parseFeatureRange(s string) (start, end int, err error) {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return 0, 0, fmt.Errorf("range %q missing ':'", s)
	}
	lo, hi := strings.TrimSpace(s[:colon]), strings.TrimSpace(s[colon+1:])
	if lo != "" {
		if start, err = strconv.Atoi(lo); err != nil {
			return 0, 0, err
		}
	}
	if hi != "" {
		if end, err = strconv.Atoi(hi); err != nil {
			return 0, 0, err
		}
	}
	return start, end, nil
}
